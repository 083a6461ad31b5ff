// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the client configuration.
type Config struct {
	// API
	APIURL     string        `validate:"required,url"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"min=0,max=10"`
	RetryDelay time.Duration `validate:"gte=0"`
	PageSize   int           `validate:"min=1,max=1000"`

	// Auth. Token, if set, is used as a static bearer token and the identity
	// provider is not contacted.
	Token            string
	AuthDomain       string `validate:"required_with=AuthClientSecret"`
	AuthClientID     string `validate:"required_with=AuthClientSecret"`
	AuthClientSecret string
	AuthAudience     string
	AuthScope        string

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Metrics (empty = disabled)
	MetricsAddr string
}

// Load reads configuration from environment variables with defaults and
// validates it.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:           envOr("FILEFLOW_API_URL", "https://api.example.com"),
		Timeout:          envDuration("FILEFLOW_TIMEOUT", 30*time.Second),
		MaxRetries:       envInt("FILEFLOW_MAX_RETRIES", 3),
		RetryDelay:       envDuration("FILEFLOW_RETRY_DELAY", time.Second),
		PageSize:         envInt("FILEFLOW_PAGE_SIZE", 20),
		Token:            envOr("FILEFLOW_TOKEN", ""),
		AuthDomain:       envOr("FILEFLOW_AUTH_DOMAIN", "your-auth0-domain.auth0.com"),
		AuthClientID:     envOr("FILEFLOW_AUTH_CLIENT_ID", ""),
		AuthClientSecret: envOr("FILEFLOW_AUTH_CLIENT_SECRET", ""),
		AuthAudience:     envOr("FILEFLOW_AUTH_AUDIENCE", "https://your-api-identifier"),
		AuthScope:        envOr("FILEFLOW_AUTH_SCOPE", "openid profile email"),
		LogLevel:         strings.ToLower(envOr("FILEFLOW_LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envOr("FILEFLOW_LOG_FORMAT", "console")),
		MetricsAddr:      envOr("FILEFLOW_METRICS_ADDR", ""),
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Scopes returns AuthScope split on whitespace.
func (c *Config) Scopes() []string {
	return strings.Fields(c.AuthScope)
}

// HasClientCredentials reports whether the client-credentials flow is
// configured.
func (c *Config) HasClientCredentials() bool {
	return c.AuthClientID != "" && c.AuthClientSecret != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// envDuration accepts Go durations ("1500ms", "2s") or a bare integer
// number of milliseconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
