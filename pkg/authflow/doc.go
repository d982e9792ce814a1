// Package authflow implements the authorization flows a session opens with.
//
// WebFlow drives the OAuth2 authorization-code dance: Start hands the host a
// redirect URL carrying an opaque state value, and the HTTP callback handler
// exchanges the returned code for a token, optionally verifying the OIDC ID
// token, then synthesizes the correlated response the host feeds back into
// the coordinator.
//
// Brokered models single sign-on against a trusted local credential broker:
// it answers from the token cache when it can and otherwise follows the
// session's login behavior, falling back to the web flow or failing.
package authflow
