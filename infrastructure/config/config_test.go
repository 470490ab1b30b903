package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:8080", cfg.RemoteBaseURL)
	assert.Equal(t, "journal-cache.db", cfg.CachePath)
	assert.Empty(t, cfg.TokenPath)

	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.EditDefer)
	assert.Equal(t, time.Second, cfg.ThrottleWindow)
	assert.Equal(t, time.Second, cfg.SaveCooldown)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnableMetrics)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("REMOTE_BASE_URL", "https://journal.example.com")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://journal.example.com", cfg.RemoteBaseURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigMalformedDurationFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad environment", "ENVIRONMENT", "staging"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad remote url", "REMOTE_BASE_URL", "not a url"},
		{"poll interval too small", "POLL_INTERVAL", "100ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
