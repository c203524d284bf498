package evalcache

import (
	"testing"

	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/stats/logger"
)

const start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestCache_GetAdd(t *testing.T) {
	c, err := New(16, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, ok := c.Get(start, 12); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	want := engine.Evaluation{Score: 31, Depth: 12, PV: []string{"e2e4", "e7e5"}}
	c.Add(start, 12, want)

	got, ok := c.Get(start, 12)
	if !ok || got.Score != want.Score || len(got.PV) != 2 {
		t.Errorf("Get() = %+v, %v; want %+v", got, ok, want)
	}

	// Move counters do not take part in the key.
	if _, ok := c.Get("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 4 9", 12); !ok {
		t.Error("Get() should ignore move counters")
	}
	if _, ok := c.Get(start, 14); ok {
		t.Error("Get() at another depth should miss")
	}
}

func TestCache_InvalidPosition(t *testing.T) {
	c, _ := New(4, nil)
	c.Add("not a fen", 10, engine.Evaluation{Score: 1})
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, ok := c.Get("not a fen", 10); ok {
		t.Error("Get() of invalid position should miss")
	}
}

func TestCache_Eviction(t *testing.T) {
	c, _ := New(1, nil)
	c.Add(start, 1, engine.Evaluation{Score: 1})
	c.Add(start, 2, engine.Evaluation{Score: 2})
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(start, 1); ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	c.Add(start, 1, engine.Evaluation{})
	if _, ok := c.Get(start, 1); ok {
		t.Error("nil cache should miss")
	}
}

func TestCache_Metrics(t *testing.T) {
	collector := logger.New(nil)
	c, _ := New(8, collector)

	c.Get(start, 5)
	c.Add(start, 5, engine.Evaluation{Score: 3})
	c.Get(start, 5)
	c.Get(start, 5)

	if got := collector.Counter(stats.MetricEvalCacheHits); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := collector.Counter(stats.MetricEvalCacheMisses); got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}
}
