package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sydlexius/encore/internal/cache"
	"github.com/sydlexius/encore/internal/config"
	"github.com/sydlexius/encore/internal/database"
	"github.com/sydlexius/encore/internal/enrich"
	"github.com/sydlexius/encore/internal/history"
	"github.com/sydlexius/encore/internal/image"
	"github.com/sydlexius/encore/internal/logging"
	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/nfo"
	"github.com/sydlexius/encore/internal/provider"
	"github.com/sydlexius/encore/internal/provider/audiodb"
	"github.com/sydlexius/encore/internal/provider/discogs"
	"github.com/sydlexius/encore/internal/provider/fanarttv"
	"github.com/sydlexius/encore/internal/provider/setlistfm"
	"github.com/sydlexius/encore/internal/provider/tmdb"
	"github.com/sydlexius/encore/internal/provider/wikipedia"
	"github.com/sydlexius/encore/internal/resolve"
)

// commandContext carries state shared by subcommands: the loaded config,
// the logger and, once a command needs it, the database.
type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	cfg        *config.Config
	logManager *logging.Manager
	logger     *slog.Logger
	db         *sql.DB
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// setup loads the configuration and starts logging.
func (c *commandContext) setup() error {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.logManager, c.logger = logging.NewManager(cfg.Logging.ManagerConfig())
	if c.logLevelFlag != nil && *c.logLevelFlag != "" {
		if err := c.logManager.SetLevel(*c.logLevelFlag); err != nil {
			return err
		}
	}
	c.logger.Debug("configuration loaded",
		slog.String("path", path),
		slog.String("logging", cfg.Logging.ManagerConfig().String()),
		slog.String("effective_level", c.logManager.Level()),
		slog.String("effective_format", c.logManager.Format()))
	return nil
}

// openDB opens and migrates the SQLite database on first use.
func (c *commandContext) openDB(ctx context.Context) (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := database.OpenAndMigrate(ctx, c.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c.logger.Debug("database ready", slog.String("path", c.cfg.Database.Path))
	c.db = db
	return db, nil
}

func (c *commandContext) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil && c.logger != nil {
			c.logger.Error("closing database", slog.String("error", err.Error()))
		}
		c.db = nil
	}
	if c.logManager != nil {
		c.logManager.Close() //nolint:errcheck
	}
}

// services is the resolution stack assembled from configuration.
type services struct {
	limiter  *provider.RateLimiterMap
	registry *provider.Registry
	resolver *resolve.Resolver
	enricher *enrich.Enricher
	cache    *cache.Store
	history  *history.Store
}

// buildServices wires providers, the waterfall and enrichment. The response
// cache is attached only when enabled.
func (c *commandContext) buildServices(ctx context.Context) (*services, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return nil, err
	}

	svc := &services{
		limiter: provider.NewRateLimiterMap(c.cfg.Providers.RateIntervals()),
		history: history.NewStore(db, c.logger),
	}

	var opts []provider.ClientOption
	if c.cfg.Cache.Enabled {
		svc.cache = cache.New(db, c.cfg.Cache.TTL, c.logger)
		opts = append(opts, provider.WithCache(svc.cache))
	}

	svc.registry = buildRegistry(c.cfg, svc.limiter, c.logger, opts...)
	gate := match.NewGate(c.cfg.Matching.AcceptThreshold)
	svc.resolver = resolve.New(svc.registry, gate, c.logger)
	svc.enricher = enrich.New(svc.registry, gate, c.cfg.Matching.MinPlotLength, c.logger)
	return svc, nil
}

// sink builds the sidecar writer. Artwork is downloaded when both the
// configuration and the caller allow it.
func (c *commandContext) sink(artwork bool) *nfo.Sink {
	opts := nfo.SinkOptions{
		DownloadArtwork: artwork && c.cfg.NFO.DownloadArtwork,
		Backup:          c.cfg.NFO.Backup,
	}
	var fetcher nfo.ArtworkFetcher
	if opts.DownloadArtwork {
		fetcher = image.NewFetcher(c.logger, image.WithMaxDimension(c.cfg.NFO.MaxArtworkDimension))
	}
	return nfo.NewSink(fetcher, opts, c.logger)
}

// buildRegistry registers every adapter with the credentials from cfg.
// Adapters missing credentials stay registered but are never consulted.
func buildRegistry(cfg *config.Config, limiter *provider.RateLimiterMap, logger *slog.Logger, opts ...provider.ClientOption) *provider.Registry {
	p := cfg.Providers
	registry := provider.NewRegistry(logger)

	registry.Register(tmdb.New(limiter, p.TMDB.APIKey, p.TMDB.Language, logger, opts...))
	registry.Register(audiodb.New(limiter, p.AudioDB.APIKey, logger, opts...))

	dc := discogs.New(limiter, p.Discogs.Key, p.Discogs.Secret, logger, opts...)
	dc.SetPrefixThreshold(cfg.Matching.ArtistPrefixThreshold)
	registry.Register(dc)

	ft := fanarttv.New(limiter, p.FanartTV.APIKey, logger, opts...)
	ft.SetBackoff(p.FanartTV.RetryBackoff)
	registry.Register(ft)

	registry.Register(setlistfm.New(limiter, p.SetlistFM.APIKey, logger, opts...))
	registry.Register(wikipedia.New(limiter, p.Wikipedia.Language, summaryFilter(p.Wikipedia), logger, opts...))

	return registry
}

// summaryFilter returns a keyword filter when keywords are configured and
// nil (the adapter default) otherwise.
func summaryFilter(cfg config.WikipediaConfig) wikipedia.PageFilter {
	if len(cfg.Keywords) == 0 {
		return nil
	}
	f := wikipedia.DefaultFilter()
	f.Keywords = cfg.Keywords
	return f
}
