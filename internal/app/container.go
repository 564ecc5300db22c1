package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/config"
	"github.com/kapu/santoral-go/internal/constants"
	"github.com/kapu/santoral-go/internal/service/cache"
	"github.com/kapu/santoral-go/internal/service/classifier"
	"github.com/kapu/santoral-go/internal/service/extractor"
	"github.com/kapu/santoral-go/internal/service/fetch"
	"github.com/kapu/santoral-go/internal/service/pipeline"
	"github.com/kapu/santoral-go/internal/service/resolver"
	"github.com/kapu/santoral-go/internal/service/store"
)

// Readings source adapters
const (
	ReadingsRSS   = "rss"
	ReadingsUSCCB = "usccb"
	ReadingsDaily = "daily"
)

// ReadingsSources lists the accepted readings source names.
var ReadingsSources = []string{ReadingsRSS, ReadingsUSCCB, ReadingsDaily}

// Container bundles assembled services for constructing pipeline runners.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Fetcher    *fetch.Fetcher
	Pacer      *fetch.Pacer
	Cache      *cache.CacheService // nil when redis is not configured
	Resolver   *resolver.Client
	Classifier *classifier.Classifier
	Saints     *store.SaintsStore
	Readings   *store.ReadingsStore
	Failures   *store.FailureLog

	closers []func()
}

// Build assembles the infrastructure shared by every command. Stores are
// constructed but not read; runners load them lazily.
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

	// Transport
	fetcher := fetch.NewFetcher(fetch.Options{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
	}, logger)
	pacer := fetch.NewPacer(cfg.HTTP.Pacing)

	// Resolver lookups survive between runs only when redis is configured.
	var (
		cacheSvc      *cache.CacheService
		resolverCache resolver.Cache
	)
	if cfg.Redis.Enabled() {
		cacheSvc, err = cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		resolverCache = cacheSvc
	} else {
		logger.Debug("Redis not configured, resolver lookups are not cached")
	}

	resolverClient := resolver.NewClient(resolver.ClientConfig{
		APIURL:    cfg.Sources.EncyclopediaAPI,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		CacheTTL:  cfg.Redis.TTL,
	}, resolverCache, logger)

	scorer, err := classifier.LoadTables(cfg.Classifier.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier tables: %w", err)
	}

	// Storage
	storeOpts := store.Options{BackupDir: cfg.BackupPath()}
	saints := store.NewSaintsStore(cfg.SaintsPath(), storeOpts, logger)
	readings := store.NewReadingsStore(cfg.ReadingsPath(), storeOpts, logger)
	failures := store.NewFailureLog(cfg.FailuresPath(), storeOpts, logger)

	logger.Info("Container ready",
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("saints_source", cfg.Sources.Saints),
		zap.Bool("cache", cacheSvc != nil),
		zap.Duration("pacing", cfg.HTTP.Pacing),
	)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Fetcher:    fetcher,
		Pacer:      pacer,
		Cache:      cacheSvc,
		Resolver:   resolverClient,
		Classifier: scorer,
		Saints:     saints,
		Readings:   readings,
		Failures:   failures,
		closers:    closers,
	}, nil
}

// Close releases connections opened by Build.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// SaintsSource returns the adapter named by name, or the configured one when
// name is empty.
func (c *Container) SaintsSource(name string) (extractor.SaintsSource, error) {
	if name == "" {
		name = c.Config.Sources.Saints
	}
	switch strings.ToLower(name) {
	case config.SourceWikipedia:
		return extractor.NewWikipediaDaySource(c.Fetcher, c.Config.Sources.SaintsBaseURL, c.Logger), nil
	case config.SourceCalendar:
		return extractor.NewCalendarSource(c.Fetcher, c.Config.Sources.CalendarBaseURL, c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown saints source %q", name)
	}
}

// ReadingsSource returns the readings adapter named by name.
func (c *Container) ReadingsSource(name string) (extractor.ReadingsSource, error) {
	switch strings.ToLower(name) {
	case ReadingsRSS:
		return extractor.NewFeedSource(c.Config.Sources.ReadingsRSS), nil
	case ReadingsUSCCB:
		return extractor.NewDatedPageSource(c.Config.Sources.ReadingsBaseURL), nil
	case ReadingsDaily:
		return extractor.NewDailyPageSource(c.Config.Sources.ReadingsDaily, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown readings source %q (want one of %s)", name, strings.Join(ReadingsSources, ", "))
	}
}

// NewSaintsRunner wires a saints runner over the named source.
func (c *Container) NewSaintsRunner(source string, downloadImages bool) (*pipeline.SaintsRunner, error) {
	src, err := c.SaintsSource(source)
	if err != nil {
		return nil, err
	}
	return pipeline.NewSaintsRunner(pipeline.SaintsDeps{
		Source:     src,
		Getter:     c.Fetcher,
		Resolver:   c.Resolver,
		Classifier: c.Classifier,
		Store:      c.Saints,
		Failures:   c.Failures,
		Images:     c.Fetcher,
		Pacer:      c.Pacer,
	}, pipeline.SaintsOptions{
		DownloadImages: downloadImages,
		ImagesDir:      c.Config.Storage.ImagesDir,
	}, c.Logger), nil
}

// NewReadingsRunner wires a readings runner over the named source.
func (c *Container) NewReadingsRunner(source string) (*pipeline.ReadingsRunner, error) {
	src, err := c.ReadingsSource(source)
	if err != nil {
		return nil, err
	}
	return pipeline.NewReadingsRunner(pipeline.ReadingsDeps{
		Source:   src,
		Getter:   c.Fetcher,
		Store:    c.Readings,
		Failures: c.Failures,
		Pacer:    c.Pacer,
	}, c.Logger), nil
}

// ClearCache drops every cached resolver lookup. It reports an error when
// redis is not configured.
func (c *Container) ClearCache(ctx context.Context) (int64, error) {
	if c.Cache == nil {
		return 0, fmt.Errorf("redis is not configured (set REDIS_HOST)")
	}
	return c.Cache.Clear(ctx, constants.ResolverConfig.CachePrefix)
}
