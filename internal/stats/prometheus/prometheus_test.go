package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/discochess/insight/internal/stats"
)

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricGamesAnalyzed, 5)
	c.IncCounter(stats.MetricGamesAnalyzed, 3)
	c.SetGauge(stats.MetricEvalCacheSize, 42)
	c.ObserveHistogram(stats.MetricWaveSeconds, 0.5)
	c.ObserveHistogram(stats.MetricWaveSeconds, 2.5)

	if got := testutil.ToFloat64(c.counters[stats.MetricGamesAnalyzed]); got != 8 {
		t.Errorf("counter = %v, want 8", got)
	}
	if got := testutil.ToFloat64(c.gauges[stats.MetricEvalCacheSize]); got != 42 {
		t.Errorf("gauge = %v, want 42", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() != stats.MetricWaveSeconds {
			continue
		}
		found = true
		if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
			t.Errorf("histogram count = %d, want 2", got)
		}
		if f.GetHelp() != help[stats.MetricWaveSeconds] {
			t.Errorf("help = %q", f.GetHelp())
		}
	}
	if !found {
		t.Error("histogram not registered")
	}
}

func TestCollector_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, b := New(reg), New(reg)

	a.IncCounter(stats.MetricEngineStalls, 1)
	b.IncCounter(stats.MetricEngineStalls, 2)

	if got := testutil.ToFloat64(a.counters[stats.MetricEngineStalls]); got != 3 {
		t.Errorf("shared counter = %v, want 3", got)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricPositionsEvaluated, 1)
				c.SetGauge(stats.MetricEvalCacheSize, int64(j))
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(c.counters[stats.MetricPositionsEvaluated]); got != 1000 {
		t.Errorf("counter = %v, want 1000", got)
	}
}
