package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/provider"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.70, cfg.Matching.AcceptThreshold)
	assert.Equal(t, 0.75, cfg.Matching.ArtistPrefixThreshold)
	assert.Equal(t, 50, cfg.Matching.MinPlotLength)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, 2100*time.Millisecond, cfg.Batch.ItemDelay)
	assert.Equal(t, "2", cfg.Providers.AudioDB.APIKey)
	assert.Equal(t, "en-US", cfg.Providers.TMDB.Language)
	assert.Equal(t, "en", cfg.Providers.Wikipedia.Language)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "auto", cfg.Logging.Format)
}

func TestLoad_MissingFileIsTolerated(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "encore.db", cfg.Database.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
providers:
  tmdb:
    api_key: tmdb-key
    language: it-IT
  discogs:
    key: k
    secret: s
  wikipedia:
    language: it
    keywords: [concerto, album]
  intervals:
    tmdb: 500ms
matching:
  accept_threshold: 0.8
batch:
  workers: 4
  item_delay: 0s
cache:
  ttl: 1h
logging:
  level: DEBUG
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tmdb-key", cfg.Providers.TMDB.APIKey)
	assert.Equal(t, "it-IT", cfg.Providers.TMDB.Language)
	assert.Equal(t, "s", cfg.Providers.Discogs.Secret)
	assert.Equal(t, []string{"concerto", "album"}, cfg.Providers.Wikipedia.Keywords)
	assert.Equal(t, 0.8, cfg.Matching.AcceptThreshold)
	assert.Equal(t, 0.75, cfg.Matching.ArtistPrefixThreshold, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Zero(t, cfg.Batch.ItemDelay)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, map[provider.ProviderName]time.Duration{provider.NameTMDB: 500 * time.Millisecond},
		cfg.Providers.RateIntervals())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
providers:
  tmdb:
    api_key: from-file
batch:
  workers: 2
`)
	t.Setenv("ENCORE_TMDB_API_KEY", "from-env")
	t.Setenv("ENCORE_WORKERS", "3")
	t.Setenv("ENCORE_ITEM_DELAY", "250ms")
	t.Setenv("ENCORE_CACHE_ENABLED", "false")
	t.Setenv("ENCORE_DB_PATH", "/tmp/other.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Providers.TMDB.APIKey)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.ItemDelay)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ENCORE_WORKERS", "many")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCORE_WORKERS")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"threshold zero", "matching:\n  accept_threshold: 0\n", "accept_threshold"},
		{"threshold above one", "matching:\n  artist_prefix_threshold: 1.5\n", "artist_prefix_threshold"},
		{"no workers", "batch:\n  workers: 0\n", "workers"},
		{"negative delay", "batch:\n  item_delay: -1s\n", "item_delay"},
		{"unknown provider interval", "providers:\n  intervals:\n    lastfm: 1s\n", "unknown provider"},
		{"bad log format", "logging:\n  format: xml\n", "log format"},
		{"bad log level", "logging:\n  level: trace\n", "log level"},
		{"empty db path", "database:\n  path: \"\"\n", "database path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "providers: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestLoggingConfig_ManagerConfig(t *testing.T) {
	l := LoggingConfig{Level: "warn", Format: "json", File: "/var/log/encore.log", FileMaxSizeMB: 5}
	mc := l.ManagerConfig()
	assert.Equal(t, "warn", mc.Level)
	assert.Equal(t, "/var/log/encore.log", mc.FilePath)
	assert.Equal(t, 5, mc.FileMaxSizeMB)
}
