package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SSOFLOW_APP_ID", "app-1")
	t.Setenv("SSOFLOW_CLIENT_ID", "client-1")
	t.Setenv("SSOFLOW_REDIRECT_URL", "http://localhost:8080/callback")
	t.Setenv("SSOFLOW_ISSUER_URL", "https://idp.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "app-1", cfg.App.ApplicationID)
	assert.Equal(t, session.DefaultAuthRequestCode, cfg.App.CorrelationCode)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Flow.Scopes)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SSOFLOW_PORT", "9999")
	t.Setenv("SSOFLOW_SCOPES", "email, publish_actions")
	t.Setenv("SSOFLOW_AUTH_REQUEST_CODE", "4242")
	t.Setenv("SSOFLOW_CACHE_BACKEND", "redis")
	t.Setenv("SSOFLOW_REDIS_URL", "redis:6379")
	t.Setenv("SSOFLOW_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, []string{"email", "publish_actions"}, cfg.Flow.Scopes)
	assert.Equal(t, 4242, cfg.App.CorrelationCode)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisURL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
}

func TestLoadConfigMissingAppID(t *testing.T) {
	t.Setenv("SSOFLOW_CLIENT_ID", "client-1")
	t.Setenv("SSOFLOW_REDIRECT_URL", "http://localhost:8080/callback")
	t.Setenv("SSOFLOW_ISSUER_URL", "https://idp.example.com")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application ID")
}

func TestLoadConfigMissingEndpoints(t *testing.T) {
	t.Setenv("SSOFLOW_APP_ID", "app-1")
	t.Setenv("SSOFLOW_CLIENT_ID", "client-1")
	t.Setenv("SSOFLOW_REDIRECT_URL", "http://localhost:8080/callback")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer URL")
}

func TestLoadConfigInvalidCacheBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SSOFLOW_CACHE_BACKEND", "etcd")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestLoadConfigPostgresRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SSOFLOW_CACHE_BACKEND", "postgres")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL")
}
