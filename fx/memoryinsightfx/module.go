// Package memoryinsightfx provides an fx module for an in-memory analyzer
// backed by the deterministic fake engine.
// Useful for testing.
package memoryinsightfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/insight"
	"github.com/discochess/insight/internal/engine/fakeengine"
	"github.com/discochess/insight/internal/source"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/stats/logger"
	"github.com/discochess/insight/internal/store/memstore"
)

// Module provides an in-memory analyzer for testing.
// Requires a *zap.Logger to be provided. A source.Source is used when
// provided.
var Module = fx.Module("memoryinsight",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("insight.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Source    source.Source `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer. The store is provided by
// newMemStore and can be populated directly in tests.
type Result struct {
	fx.Out

	Analyzer *insight.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	a, err := insight.New(
		insight.WithSource(p.Source),
		insight.WithEngine(fakeengine.Factory()),
		insight.WithStore(p.Store),
		insight.WithStats(p.Collector),
		insight.WithLogger(p.Logger.Named("insight")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{Analyzer: a}, nil
}
