// Package diskinsightfx provides an fx module for a disk-backed analyzer
// driving a local UCI engine.
package diskinsightfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/insight"
	"github.com/discochess/insight/internal/cachestrategy/lru"
	"github.com/discochess/insight/internal/codec/zstdcodec"
	"github.com/discochess/insight/internal/engine/uciengine"
	"github.com/discochess/insight/internal/source"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/stats/logger"
	"github.com/discochess/insight/internal/store/cachedstore"
	"github.com/discochess/insight/internal/store/cachedstore/memory"
	"github.com/discochess/insight/internal/store/diskstore"
)

// Config holds configuration for the disk-backed analyzer.
type Config struct {
	// CacheDir is the directory the result cache lives in.
	CacheDir string

	// EnginePath is the UCI engine binary. Default is "stockfish".
	EnginePath    string
	EngineHash    int
	EngineThreads int

	Workers      int
	Depth        int
	StallTimeout time.Duration

	// BucketCacheSize is the number of buckets kept in memory.
	// Default is 64.
	BucketCacheSize int
}

// Module provides a disk-backed analyzer.
// Requires a *zap.Logger and a Config to be provided. A source.Source is
// used when provided.
var Module = fx.Module("diskinsight",
	fx.Provide(
		newStatsCollector,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("insight.stats"))
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    Config
	Source    source.Source `optional:"true"`
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *insight.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	cacheSize := p.Config.BucketCacheSize
	if cacheSize <= 0 {
		cacheSize = 64
	}
	enginePath := p.Config.EnginePath
	if enginePath == "" {
		enginePath = "stockfish"
	}

	baseStore, err := diskstore.New(p.Config.CacheDir)
	if err != nil {
		return Result{}, err
	}
	lruStrategy, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return Result{}, err
	}
	st := cachedstore.New(baseStore, memory.New(lruStrategy, p.Collector))

	zc, err := zstdcodec.New()
	if err != nil {
		return Result{}, err
	}

	log := p.Logger.Named("insight")
	a, err := insight.New(
		insight.WithSource(p.Source),
		insight.WithEngine(uciengine.Factory(enginePath,
			uciengine.WithHash(p.Config.EngineHash),
			uciengine.WithThreads(p.Config.EngineThreads),
			uciengine.WithLogger(log.Named("engine")),
		)),
		insight.WithStore(st),
		insight.WithCodec(zc),
		insight.WithWorkers(p.Config.Workers),
		insight.WithDepth(p.Config.Depth),
		insight.WithStallTimeout(stallTimeout(p.Config.StallTimeout)),
		insight.WithStats(p.Collector),
		insight.WithLogger(log),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := a.Close(); err != nil {
				return err
			}
			return st.Close()
		},
	})

	return Result{Analyzer: a}, nil
}

func stallTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
