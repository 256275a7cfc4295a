package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"yahoo", "finnhub"}, cfg.Quotes.Sources)
	assert.Equal(t, 60*time.Second, cfg.Quotes.CacheTTL)
	assert.Equal(t, 3, cfg.Policy().MaxDayTrades)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"warning rate zero", func(c *Config) { c.Account.WarningUsageRate = 0 }},
		{"danger below warning", func(c *Config) { c.Account.DangerUsageRate = 0.4 }},
		{"weight above one", func(c *Config) { c.Account.MaxPositionWeight = 1.5 }},
		{"no day trades", func(c *Config) { c.Account.MaxDayTrades = 0 }},
		{"bad timezone", func(c *Config) { c.Account.Timezone = "Mars/Olympus" }},
		{"no db", func(c *Config) { c.Journal.DBPath = "" }},
		{"no sources", func(c *Config) { c.Quotes.Sources = nil }},
		{"unknown source", func(c *Config) { c.Quotes.Sources = []string{"bloomberg"} }},
		{"negative retries", func(c *Config) { c.Quotes.MaxRetries = -1 }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marginpilot.yaml")

	cfg := Default()
	cfg.Account.WarningUsageRate = 0.45
	cfg.Account.Timezone = "UTC"
	cfg.Quotes.Sources = []string{"finnhub"}
	cfg.Quotes.FinnhubAPIKey = "never-written"
	require.NoError(t, cfg.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-written")

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.45, got.Account.WarningUsageRate)
	assert.Equal(t, []string{"finnhub"}, got.Quotes.Sources)
	assert.Equal(t, cfg.Quotes.CacheTTL, got.Quotes.CacheTTL)
}

func TestLoadJSONFallbackKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marginpilot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"addr": ":9090"}, "log": {"level": "debug"}}`), 0o600))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", got.Server.Addr)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, Default().Journal.DBPath, got.Journal.DBPath)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \"\"\n"), 0o600))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "server.addr")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("OPENAI_API_KEY", "sk-key")
	t.Setenv("MARGINPILOT_DB", "/tmp/other.db")
	t.Setenv("MARGINPILOT_ADDR", "127.0.0.1:7000")
	t.Setenv("MARGINPILOT_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "fh-key", cfg.Quotes.FinnhubAPIKey)
	assert.Equal(t, "sk-key", cfg.OCR.APIKey)
	assert.Equal(t, "/tmp/other.db", cfg.Journal.DBPath)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}
