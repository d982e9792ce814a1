// Package config loads the coordinator's configuration from environment
// variables.
//
// All variables are prefixed SSOFLOW_. The application ID and OAuth2 client
// settings are required for the demo host; cache and observability settings
// have working defaults.
package config
