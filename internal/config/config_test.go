package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	fav, cmp, recent := cfg.Storage.Keys()
	assert.Equal(t, "uk-estates-favorites", fav)
	assert.Equal(t, "uk-estates-compare", cmp)
	assert.Equal(t, "uk-estates-recent", recent)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().HTTP.Addr, cfg.HTTP.Addr)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
refresh_interval: 30s
log_format: json
http:
  addr: ":9090"
catalog:
  source: remote
  remote_url: https://api.example.com/b/listings
  max_delay: 2s
storage:
  driver: badger
  badger_path: /tmp/estates-badger
map:
  geohash_precision: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "remote", cfg.Catalog.Source)
	assert.Equal(t, 2*time.Second, cfg.Catalog.MaxDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 300*time.Millisecond, cfg.Catalog.MinDelay)
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, uint(7), cfg.Map.GeohashPrecision)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "http: [unclosed"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestEnvBadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"unknown source", func(c *Config) { c.Catalog.Source = "ftp" }},
		{"remote without url", func(c *Config) { c.Catalog.Source = "remote" }},
		{"delay range", func(c *Config) { c.Catalog.MinDelay = time.Second; c.Catalog.MaxDelay = time.Millisecond }},
		{"precision", func(c *Config) { c.Map.GeohashPrecision = 13 }},
		{"redis without addr", func(c *Config) { c.Storage.Driver = "redis" }},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "123:abc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
