package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceCSV, cfg.Matching.CorpusSource)
	assert.Equal(t, 8, cfg.Matching.DefaultTopN)
	assert.Equal(t, "corpus-updates", cfg.Kafka.Topics.CorpusUpdates)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "host=localhost port=5432 user=placement password=localdev dbname=placement sslmode=disable", cfg.Postgres.DSN())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
matching:
  corpusSource: postgres
  defaultTopN: 5
  maxTopN: 20
  reloadTimeout: 30s
redis:
  cacheTTL: 1m
`), 0o600))

	t.Setenv("PA_SERVER_PORT", "9100")
	t.Setenv("PA_KAFKA_BROKERS", " a:9092, b:9092 ,")
	t.Setenv("PA_REDIS_ADDR", "")
	t.Setenv("PA_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over file")
	assert.Equal(t, SourcePostgres, cfg.Matching.CorpusSource)
	assert.Equal(t, 5, cfg.Matching.DefaultTopN)
	assert.Equal(t, 30*time.Second, cfg.Matching.ReloadTimeout)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr, "an explicitly empty address disables the cache")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns, "unset keys keep their defaults")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unterminated"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Matching.CorpusSource = "mongo" }},
		{"csv without path", func(c *Config) { c.Matching.CorpusPath = "" }},
		{"zero top n", func(c *Config) { c.Matching.DefaultTopN = 0 }},
		{"max below default", func(c *Config) { c.Matching.MaxTopN = 2 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"rate limit without rate", func(c *Config) { c.RateLimit.RequestsPerSec = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, defaultConfig().Validate())
}
