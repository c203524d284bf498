// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/insight/internal/stats"
)

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

var help = map[string]string{
	stats.MetricGamesAnalyzed:      "Games scored and classified.",
	stats.MetricGamesFailed:        "Games excluded from a batch after a normalization, replay or engine failure.",
	stats.MetricGamesCached:        "Games skipped because the result cache already held them at the requested depth.",
	stats.MetricPositionsEvaluated: "Positions evaluated by an engine.",
	stats.MetricEngineStalls:       "Games abandoned because an engine stopped producing evaluations.",
	stats.MetricWaveSeconds:        "Wall time of one scheduling wave.",
	stats.MetricEvalCacheHits:      "Evaluation cache hits.",
	stats.MetricEvalCacheMisses:    "Evaluation cache misses.",
	stats.MetricEvalCacheSize:      "Entries in the evaluation cache.",
	stats.MetricCacheInvalidations: "Result cache wipes caused by an algorithm version change.",
	stats.MetricCacheWriteErrors:   "Failed result cache writes.",
	stats.MetricStoreCacheHits:     "Blob cache hits.",
	stats.MetricStoreCacheMisses:   "Blob cache misses.",
	stats.MetricStoreCacheSize:     "Entries in the blob cache.",
}

// waveBuckets covers waves from a fraction of a second (shallow depth,
// short games) to several minutes.
var waveBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Collector implements stats.Collector using Prometheus metrics created on
// first use.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// New creates a Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpFor(name),
			Buckets: waveBuckets,
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric registered under name, registering a new
// one when needed. A metric already registered elsewhere on the registry
// is reused.
func getOrCreate[M prometheus.Collector](c *Collector, m map[string]M, name string, create func() M) M {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := m[name]; ok {
		return existing
	}

	metric := create()
	if err := c.registry.Register(metric); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				metric = existing
			}
		}
	}
	m[name] = metric
	return metric
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
