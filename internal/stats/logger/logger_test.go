package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/insight/internal/stats"
)

func TestCollector_Totals(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricGamesAnalyzed, 2)
	c.IncCounter(stats.MetricGamesAnalyzed, 3)
	c.SetGauge(stats.MetricEvalCacheSize, 7)
	c.ObserveHistogram(stats.MetricWaveSeconds, 1.5)

	if got := c.Counter(stats.MetricGamesAnalyzed); got != 5 {
		t.Errorf("Counter() = %d, want 5", got)
	}
	if got := logs.FilterMessage("counter").Len(); got != 2 {
		t.Errorf("counter log entries = %d, want 2", got)
	}

	c.Summary()
	summary := logs.FilterMessage("metrics summary").All()
	if len(summary) != 1 {
		t.Fatalf("summary entries = %d, want 1", len(summary))
	}
	ctx := summary[0].ContextMap()
	if ctx[stats.MetricGamesAnalyzed] != int64(5) {
		t.Errorf("summary %s = %v, want 5", stats.MetricGamesAnalyzed, ctx[stats.MetricGamesAnalyzed])
	}
	if ctx[stats.MetricEvalCacheSize] != int64(7) {
		t.Errorf("summary %s = %v, want 7", stats.MetricEvalCacheSize, ctx[stats.MetricEvalCacheSize])
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter("x", 1)
	c.Summary()
}
