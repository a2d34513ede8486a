package app

import (
	"context"
	"fmt"

	"github.com/kapu/kdp-keyword-go/internal/api"
	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/research"
	"github.com/kapu/kdp-keyword-go/internal/service/cache"
	"github.com/kapu/kdp-keyword-go/internal/service/database"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/kapu/kdp-keyword-go/internal/store"
	"go.uber.org/zap"
)

// Container bundles assembled services for the HTTP server and the CLI.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Store      *store.SQLStore
	Cache      *cache.CacheService // nil unless Redis is enabled and reachable
	Sources    *source.Registry
	Aggregator *research.Aggregator

	closers []func()
}

// NewServer returns the HTTP API bound to the container's services.
func (c *Container) NewServer() *api.Server {
	return api.NewServer(c.Aggregator, c.Store, c.Logger)
}

// Close releases everything Build opened, in reverse order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles storage, the optional Redis cache, the source adapters and
// the research pipeline. On error everything opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Storage
	db, err := database.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	closers = append(closers, func() {
		_ = db.Close()
	})

	st := store.NewSQLStore(db.GetDB(), db.Driver(), logger)
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Response cache (optional)
	var cacheSvc *cache.CacheService
	if cfg.Redis.Enabled {
		svc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, continuing without response cache", zap.Error(cacheErr))
		} else {
			cacheSvc = svc
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	// Source adapters
	var sourceCache source.Cache
	if cacheSvc != nil {
		sourceCache = cacheSvc
	}
	registry, err := buildSources(ctx, cfg, sourceCache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build sources: %w", err)
	}
	closers = append(closers, registry.Close)

	logger.Info("Sources configured",
		zap.Strings("sources", registry.Names()),
		zap.Bool("cache", cacheSvc != nil))

	// Research pipeline
	rc := cfg.Research
	expander := research.NewExpander(registry.Suggesters(), research.ExpanderConfig{
		Breadth:       rc.Breadth,
		MaxCandidates: rc.MaxCandidates,
		Concurrency:   rc.Concurrency,
		CallTimeout:   rc.CallTimeout,
	}, logger)
	collector := research.NewCollector(registry.Measurers(), research.CollectorConfig{
		Concurrency:    rc.Concurrency,
		Attempts:       rc.Attempts,
		CallTimeout:    rc.CallTimeout,
		KeywordTimeout: rc.KeywordTimeout,
		BaseDelay:      constants.RetryConfig.BaseDelay,
		Jitter:         constants.RetryConfig.Jitter,
	}, logger)
	aggregator := research.NewAggregator(expander, collector, research.AggregatorConfig{
		MaxSeeds:       rc.MaxSeeds,
		RequestTimeout: rc.RequestTimeout,
	}, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Store:      st,
		Cache:      cacheSvc,
		Sources:    registry,
		Aggregator: aggregator,
		closers:    closers,
	}, nil
}
