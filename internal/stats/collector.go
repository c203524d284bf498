// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the pipeline.
const (
	// Pipeline metrics.
	MetricGamesAnalyzed      = "insight_games_analyzed_total"
	MetricGamesFailed        = "insight_games_failed_total"
	MetricGamesCached        = "insight_games_cached_total"
	MetricPositionsEvaluated = "insight_positions_evaluated_total"
	MetricEngineStalls       = "insight_engine_stalls_total"
	MetricWaveSeconds        = "insight_wave_duration_seconds"

	// Evaluation cache metrics.
	MetricEvalCacheHits   = "insight_eval_cache_hits_total"
	MetricEvalCacheMisses = "insight_eval_cache_misses_total"
	MetricEvalCacheSize   = "insight_eval_cache_size"

	// Result cache metrics.
	MetricCacheInvalidations = "insight_cache_invalidations_total"
	MetricCacheWriteErrors   = "insight_cache_write_errors_total"

	// Store cache metrics.
	MetricStoreCacheHits   = "insight_store_cache_hits_total"
	MetricStoreCacheMisses = "insight_store_cache_misses_total"
	MetricStoreCacheSize   = "insight_store_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
