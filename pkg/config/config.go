package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// App holds the defaults applied when authorization is requested
	// without explicit parameters
	App AppConfig

	// Flow configuration for the web authorization flow
	Flow FlowConfig

	// Cache configuration for token persistence
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AppConfig holds the environment defaults for authorization requests
type AppConfig struct {
	ApplicationID   string
	Permissions     []string
	CorrelationCode int
}

// FlowConfig holds OAuth2/OIDC settings for the web flow
type FlowConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// CacheConfig selects and configures the token cache backend
type CacheConfig struct {
	// Backend is one of "memory", "redis" or "postgres"
	Backend string

	MemorySize int

	RedisURL      string
	RedisPassword string
	RedisDB       int

	PostgresURL   string
	SweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SSOFLOW_HOST", "0.0.0.0"),
			Port:            getEnv("SSOFLOW_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SSOFLOW_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SSOFLOW_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SSOFLOW_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SSOFLOW_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		App: AppConfig{
			ApplicationID:   getEnv("SSOFLOW_APP_ID", ""),
			Permissions:     getEnvList("SSOFLOW_PERMISSIONS", nil),
			CorrelationCode: getEnvInt("SSOFLOW_AUTH_REQUEST_CODE", session.DefaultAuthRequestCode),
		},
		Flow: FlowConfig{
			ClientID:     getEnv("SSOFLOW_CLIENT_ID", ""),
			ClientSecret: getEnv("SSOFLOW_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("SSOFLOW_REDIRECT_URL", ""),
			IssuerURL:    getEnv("SSOFLOW_ISSUER_URL", ""),
			AuthURL:      getEnv("SSOFLOW_AUTH_URL", ""),
			TokenURL:     getEnv("SSOFLOW_TOKEN_URL", ""),
			Scopes:       getEnvList("SSOFLOW_SCOPES", []string{"openid", "profile", "email"}),
		},
		Cache: CacheConfig{
			Backend:       getEnv("SSOFLOW_CACHE_BACKEND", "memory"),
			MemorySize:    getEnvInt("SSOFLOW_CACHE_SIZE", 0),
			RedisURL:      getEnv("SSOFLOW_REDIS_URL", "localhost:6379"),
			RedisPassword: getEnv("SSOFLOW_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SSOFLOW_REDIS_DB", 0),
			PostgresURL:   getEnv("SSOFLOW_POSTGRES_URL", ""),
			SweepSchedule: getEnv("SSOFLOW_SWEEP_SCHEDULE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("SSOFLOW_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("SSOFLOW_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.App.ApplicationID == "" {
		return fmt.Errorf("application ID is required")
	}

	if c.Flow.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.Flow.RedirectURL == "" {
		return fmt.Errorf("redirect URL is required")
	}
	if c.Flow.IssuerURL == "" && (c.Flow.AuthURL == "" || c.Flow.TokenURL == "") {
		return fmt.Errorf("either an issuer URL or explicit auth/token URLs are required")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis cache")
		}
	case "postgres":
		if c.Cache.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres cache")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory, redis, or postgres)", c.Cache.Backend)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
