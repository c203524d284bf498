// Package logger provides a zap-based stats collector that keeps running
// totals and logs them.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/stats"
)

// Collector implements stats.Collector by logging every update at debug
// level and keeping totals for Summary.
type Collector struct {
	logger *zap.Logger

	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
}

var _ stats.Collector = (*Collector)(nil)

// New creates a logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger:   logger,
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
	}
}

// IncCounter adds delta to the named counter.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.counters[name] += delta
	c.mu.Unlock()
	c.logger.Debug("counter", zap.String("metric", name), zap.Int64("delta", delta))
}

// SetGauge records the latest value of the named gauge.
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	c.gauges[name] = value
	c.mu.Unlock()
	c.logger.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

// ObserveHistogram logs a histogram observation. Observations are not
// retained.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram", zap.String("metric", name), zap.Float64("value", value))
}

// Counter returns the running total of the named counter.
func (c *Collector) Counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Summary logs every counter and gauge at info level, sorted by name.
func (c *Collector) Summary() {
	c.mu.Lock()
	fields := make([]zap.Field, 0, len(c.counters)+len(c.gauges))
	for name, v := range c.counters {
		fields = append(fields, zap.Int64(name, v))
	}
	for name, v := range c.gauges {
		fields = append(fields, zap.Int64(name, v))
	}
	c.mu.Unlock()

	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	c.logger.Info("metrics summary", fields...)
}
