package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/insight"
	"github.com/discochess/insight/internal/cachestrategy/lru"
	"github.com/discochess/insight/internal/codec"
	"github.com/discochess/insight/internal/codec/gzipcodec"
	"github.com/discochess/insight/internal/codec/noopcodec"
	"github.com/discochess/insight/internal/codec/zstdcodec"
	"github.com/discochess/insight/internal/config"
	"github.com/discochess/insight/internal/engine/uciengine"
	"github.com/discochess/insight/internal/source"
	"github.com/discochess/insight/internal/source/chesscom"
	"github.com/discochess/insight/internal/source/lichess"
	"github.com/discochess/insight/internal/source/pgnfile"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/stats/logger"
	promstats "github.com/discochess/insight/internal/stats/prometheus"
	"github.com/discochess/insight/internal/store"
	"github.com/discochess/insight/internal/store/cachedstore"
	"github.com/discochess/insight/internal/store/cachedstore/memory"
	"github.com/discochess/insight/internal/store/diskstore"
	"github.com/discochess/insight/internal/store/gcsstore"
	"github.com/discochess/insight/internal/store/memstore"
	"github.com/discochess/insight/internal/store/s3store"
)

// bucketCacheSize is the number of decoded blobs kept in front of remote
// and disk stores.
const bucketCacheSize = 64

// env bundles what every command needs.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	stats    stats.Collector
	registry *prometheus.Registry
	store    store.Store
	analyzer *insight.Analyzer
}

// loadConfig layers the config file, environment and the global flags
// that were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("cache") {
		cfg.CacheBackend = cacheBackend
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("codec") {
		cfg.Codec = codecName
	}
	if flags.Changed("user") {
		cfg.Username = username
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup validates cfg and builds the analyzer with everything it needs.
func setup(ctx context.Context, cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	e := &env{cfg: cfg, logger: log}
	if metricsFile != "" {
		e.registry = prometheus.NewRegistry()
		e.stats = promstats.New(e.registry)
	} else {
		e.stats = logger.New(log.Named("stats"))
	}

	e.store, err = newStore(ctx, cfg, e.stats)
	if err != nil {
		return nil, err
	}
	c, err := newCodec(cfg.Codec)
	if err != nil {
		_ = e.store.Close()
		return nil, err
	}
	src, err := newSource(cfg, log)
	if err != nil {
		_ = e.store.Close()
		return nil, err
	}

	e.analyzer, err = insight.New(
		insight.WithSource(src),
		insight.WithEngine(uciengine.Factory(cfg.EnginePath,
			uciengine.WithHash(cfg.EngineHash),
			uciengine.WithThreads(cfg.EngineThreads),
			uciengine.WithLogger(log.Named("engine")),
		)),
		insight.WithStore(e.store),
		insight.WithCodec(c),
		insight.WithWorkers(cfg.Workers),
		insight.WithDepth(cfg.Depth),
		insight.WithStallTimeout(cfg.StallTimeout),
		insight.WithRetries(cfg.Retries),
		insight.WithThreshold(cfg.Threshold),
		insight.WithGuard(cfg.Guard),
		insight.WithMainLines(cfg.MainLines),
		insight.WithEvalCacheSize(cfg.EvalCacheSize),
		insight.WithStats(e.stats),
		insight.WithLogger(log),
	)
	if err != nil {
		_ = e.store.Close()
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	return e, nil
}

// Close flushes metrics and releases the analyzer and store.
func (e *env) Close() error {
	_ = e.analyzer.Close()
	err := e.store.Close()

	if e.registry != nil {
		if werr := prometheus.WriteToTextfile(metricsFile, e.registry); werr != nil {
			e.logger.Error("writing metrics", zap.String("file", metricsFile), zap.Error(werr))
		}
	} else if l, ok := e.stats.(*logger.Collector); ok {
		l.Summary()
	}
	_ = e.logger.Sync()
	return err
}

func newStore(ctx context.Context, cfg *config.Config, collector stats.Collector) (store.Store, error) {
	var (
		base store.Store
		err  error
	)
	switch cfg.CacheBackend {
	case "memory":
		return memstore.New(), nil
	case "disk":
		base, err = diskstore.New(cfg.CacheDir)
	case "s3":
		base, err = s3store.New(ctx, cfg.CacheBucket,
			s3store.WithPrefix(cfg.CachePrefix),
			s3store.WithRegion(cfg.CacheRegion),
			s3store.WithEndpoint(cfg.CacheEndpoint),
		)
	case "gcs":
		base, err = gcsstore.New(ctx, cfg.CacheBucket, gcsstore.WithPrefix(cfg.CachePrefix))
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.CacheBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.CacheBackend, err)
	}

	strategy, err := lru.New[string, []byte](bucketCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU strategy: %w", err)
	}
	return cachedstore.New(base, memory.New(strategy, collector)), nil
}

func newCodec(name string) (codec.Codec, error) {
	switch name {
	case "zstd":
		c, err := zstdcodec.New()
		if err != nil {
			return nil, fmt.Errorf("creating zstd codec: %w", err)
		}
		return c, nil
	case "gzip":
		return gzipcodec.New(), nil
	case "none":
		return noopcodec.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidCodec, name)
}

func newSource(cfg *config.Config, log *zap.Logger) (source.Source, error) {
	switch cfg.Platform {
	case "chesscom":
		return chesscom.New(chesscom.WithLogger(log.Named("chesscom"))), nil
	case "lichess":
		return lichess.New(lichess.WithLogger(log.Named("lichess"))), nil
	case "pgn":
		return pgnfile.New(cfg.PGNPath), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidPlatform, cfg.Platform)
}
