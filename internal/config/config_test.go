package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, "your-auth0-domain.auth0.com", cfg.AuthDomain)
	assert.Equal(t, "https://your-api-identifier", cfg.AuthAudience)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Scopes())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.HasClientCredentials())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FILEFLOW_API_URL", "http://localhost:5000/")
	t.Setenv("FILEFLOW_TIMEOUT", "5s")
	t.Setenv("FILEFLOW_MAX_RETRIES", "0")
	t.Setenv("FILEFLOW_RETRY_DELAY", "250")
	t.Setenv("FILEFLOW_LOG_LEVEL", "DEBUG")
	t.Setenv("FILEFLOW_LOG_FORMAT", "json")
	t.Setenv("FILEFLOW_METRICS_ADDR", ":9090")
	t.Setenv("FILEFLOW_AUTH_CLIENT_ID", "cli")
	t.Setenv("FILEFLOW_AUTH_CLIENT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.HasClientCredentials())
}

func TestLoad_UnparseableFallsBack(t *testing.T) {
	t.Setenv("FILEFLOW_MAX_RETRIES", "many")
	t.Setenv("FILEFLOW_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad url", "FILEFLOW_API_URL", "not a url", "APIURL"},
		{"bad level", "FILEFLOW_LOG_LEVEL", "verbose", "LogLevel"},
		{"bad format", "FILEFLOW_LOG_FORMAT", "xml", "LogFormat"},
		{"too many retries", "FILEFLOW_MAX_RETRIES", "50", "MaxRetries"},
		{"negative retries", "FILEFLOW_MAX_RETRIES", "-1", "MaxRetries"},
		{"zero page size", "FILEFLOW_PAGE_SIZE", "0", "PageSize"},
		{"bad metrics addr", "FILEFLOW_METRICS_ADDR", "9090", "MetricsAddr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_SecretNeedsClientID(t *testing.T) {
	cfg := &Config{
		APIURL:           "https://api.example.com",
		Timeout:          time.Second,
		PageSize:         20,
		AuthDomain:       "tenant.auth0.com",
		AuthClientSecret: "s3cret",
		LogLevel:         "info",
		LogFormat:        "console",
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AuthClientID")
}
