package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/encore/internal/logging"
	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/provider"
)

// Config holds all application configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Matching  MatchingConfig  `yaml:"matching"`
	Batch     BatchConfig     `yaml:"batch"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	NFO       NFOConfig       `yaml:"nfo"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProvidersConfig holds credentials and per-provider settings.
type ProvidersConfig struct {
	TMDB      TMDBConfig      `yaml:"tmdb"`
	AudioDB   APIKeyConfig    `yaml:"audiodb"`
	Discogs   DiscogsConfig   `yaml:"discogs"`
	FanartTV  FanartTVConfig  `yaml:"fanarttv"`
	SetlistFM APIKeyConfig    `yaml:"setlistfm"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	// Intervals overrides the minimum spacing between requests, keyed by
	// provider name.
	Intervals map[string]time.Duration `yaml:"intervals"`
}

// APIKeyConfig is a provider that needs only an API key.
type APIKeyConfig struct {
	APIKey string `yaml:"api_key"`
}

// TMDBConfig holds TMDB settings.
type TMDBConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

// DiscogsConfig holds the Discogs consumer key pair.
type DiscogsConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

// FanartTVConfig holds Fanart.tv settings.
type FanartTVConfig struct {
	APIKey       string        `yaml:"api_key"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// WikipediaConfig holds the wiki edition and the optional keyword set a
// summary must mention to be used as a plot.
type WikipediaConfig struct {
	Language string   `yaml:"language"`
	Keywords []string `yaml:"keywords"`
}

// MatchingConfig holds the similarity thresholds.
type MatchingConfig struct {
	AcceptThreshold       float64 `yaml:"accept_threshold"`
	ArtistPrefixThreshold float64 `yaml:"artist_prefix_threshold"`
	MinPlotLength         int     `yaml:"min_plot_length"`
}

// BatchConfig holds worker pool settings.
type BatchConfig struct {
	Workers   int           `yaml:"workers"`
	ItemDelay time.Duration `yaml:"item_delay"`
}

// CacheConfig holds provider response cache settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path            string `yaml:"path"`
	BackupDir       string `yaml:"backup_dir"`
	BackupRetention int    `yaml:"backup_retention"`
}

// NFOConfig holds sidecar output settings.
type NFOConfig struct {
	DownloadArtwork     bool `yaml:"download_artwork"`
	Backup              bool `yaml:"backup"`
	MaxArtworkDimension int  `yaml:"max_artwork_dimension"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	File           string `yaml:"file"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Providers: ProvidersConfig{
			TMDB:      TMDBConfig{Language: "en-US"},
			AudioDB:   APIKeyConfig{APIKey: "2"},
			FanartTV:  FanartTVConfig{RetryBackoff: 2 * time.Second},
			Wikipedia: WikipediaConfig{Language: "en"},
		},
		Matching: MatchingConfig{
			AcceptThreshold:       match.DefaultAcceptThreshold,
			ArtistPrefixThreshold: match.DefaultArtistPrefixThreshold,
			MinPlotLength:         50,
		},
		Batch: BatchConfig{
			Workers:   1,
			ItemDelay: 2100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Database: DatabaseConfig{
			Path:            "encore.db",
			BackupDir:       "backups",
			BackupRetention: 7,
		},
		NFO: NFOConfig{
			DownloadArtwork:     true,
			Backup:              true,
			MaxArtworkDimension: 3000,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "auto",
			FileMaxSizeMB:  100,
			FileMaxFiles:   3,
			FileMaxAgeDays: 30,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	strs := map[string]*string{
		"ENCORE_TMDB_API_KEY":       &c.Providers.TMDB.APIKey,
		"ENCORE_TMDB_LANGUAGE":      &c.Providers.TMDB.Language,
		"ENCORE_AUDIODB_API_KEY":    &c.Providers.AudioDB.APIKey,
		"ENCORE_DISCOGS_KEY":        &c.Providers.Discogs.Key,
		"ENCORE_DISCOGS_SECRET":     &c.Providers.Discogs.Secret,
		"ENCORE_FANARTTV_API_KEY":   &c.Providers.FanartTV.APIKey,
		"ENCORE_SETLISTFM_API_KEY":  &c.Providers.SetlistFM.APIKey,
		"ENCORE_WIKIPEDIA_LANGUAGE": &c.Providers.Wikipedia.Language,
		"ENCORE_DB_PATH":            &c.Database.Path,
		"ENCORE_LOG_LEVEL":          &c.Logging.Level,
		"ENCORE_LOG_FORMAT":         &c.Logging.Format,
		"ENCORE_LOG_FILE":           &c.Logging.File,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ENCORE_ACCEPT_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ENCORE_ACCEPT_THRESHOLD: %w", err)
		}
		c.Matching.AcceptThreshold = f
	}
	if v := os.Getenv("ENCORE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ENCORE_WORKERS: %w", err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv("ENCORE_ITEM_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ENCORE_ITEM_DELAY: %w", err)
		}
		c.Batch.ItemDelay = d
	}
	if v := os.Getenv("ENCORE_CACHE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENCORE_CACHE_ENABLED: %w", err)
		}
		c.Cache.Enabled = b
	}
	if v := os.Getenv("ENCORE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ENCORE_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	return nil
}

func (c *Config) validate() error {
	if !inUnitInterval(c.Matching.AcceptThreshold) {
		return fmt.Errorf("accept_threshold must be in (0, 1]: %v", c.Matching.AcceptThreshold)
	}
	if !inUnitInterval(c.Matching.ArtistPrefixThreshold) {
		return fmt.Errorf("artist_prefix_threshold must be in (0, 1]: %v", c.Matching.ArtistPrefixThreshold)
	}
	if c.Matching.MinPlotLength < 0 {
		return fmt.Errorf("min_plot_length must not be negative: %d", c.Matching.MinPlotLength)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1: %d", c.Batch.Workers)
	}
	if c.Batch.ItemDelay < 0 {
		return fmt.Errorf("batch item_delay must not be negative: %s", c.Batch.ItemDelay)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive: %s", c.Cache.TTL)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Database.BackupRetention < 0 {
		return fmt.Errorf("backup_retention must not be negative: %d", c.Database.BackupRetention)
	}
	for name, d := range c.Providers.Intervals {
		if !knownProvider(name) {
			return fmt.Errorf("unknown provider in intervals: %q", name)
		}
		if d < 0 {
			return fmt.Errorf("interval for %s must not be negative: %s", name, d)
		}
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}

// RateIntervals returns the configured request spacing overrides keyed by
// provider.
func (p ProvidersConfig) RateIntervals() map[provider.ProviderName]time.Duration {
	out := make(map[provider.ProviderName]time.Duration, len(p.Intervals))
	for name, d := range p.Intervals {
		out[provider.ProviderName(name)] = d
	}
	return out
}

// ManagerConfig converts the logging section for logging.NewManager.
func (l LoggingConfig) ManagerConfig() logging.Config {
	return logging.Config{
		Level:          l.Level,
		Format:         l.Format,
		FilePath:       l.File,
		FileMaxSizeMB:  l.FileMaxSizeMB,
		FileMaxFiles:   l.FileMaxFiles,
		FileMaxAgeDays: l.FileMaxAgeDays,
	}
}

func inUnitInterval(f float64) bool {
	return f > 0 && f <= 1
}

func knownProvider(name string) bool {
	for _, n := range provider.AllProviderNames() {
		if string(n) == name {
			return true
		}
	}
	return false
}
