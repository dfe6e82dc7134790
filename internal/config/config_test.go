package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "DEFAULT_TIMEZONE", "CORS_ALLOWED_ORIGINS",
	"UPSTREAM_BASE_URL", "UPSTREAM_TIMEOUT",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
	"RATE_LIMIT", "RATE_WINDOW",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_BASE_URL", "http://backend:8000/")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, time.UTC, cfg.App.DefaultTimezone)
	assert.Empty(t, cfg.App.AllowedOrigins)
	assert.Equal(t, "http://backend:8000", cfg.Upstream.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 100, cfg.Limits.RateLimit)
	assert.Equal(t, time.Minute, cfg.Limits.RateWindow)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Rome")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT", "5")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "Europe/Rome", cfg.App.DefaultTimezone.String())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.App.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 5, cfg.Limits.RateLimit)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("UPSTREAM_BASE_URL=http://from-file:9000\nPORT=9090\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("UPSTREAM_BASE_URL")
		os.Unsetenv("PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:9000", cfg.Upstream.BaseURL)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing upstream", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(missingEnvFile(t))
		assert.ErrorIs(t, err, ErrMissingUpstream)
	})

	t.Run("Invalid values are all reported", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("UPSTREAM_BASE_URL", "not a url")
		t.Setenv("UPSTREAM_TIMEOUT", "ten seconds")
		t.Setenv("REDIS_DB", "first")
		t.Setenv("DEFAULT_TIMEZONE", "Mars/Olympus")

		_, err := Load(missingEnvFile(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL")
		assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
		assert.Contains(t, err.Error(), "REDIS_DB")
		assert.Contains(t, err.Error(), "DEFAULT_TIMEZONE")
	})
}
