// Package evalcache remembers engine evaluations by position and depth so
// positions shared between games are searched once per run.
package evalcache

import (
	"strconv"

	"github.com/discochess/insight/internal/cachestrategy"
	"github.com/discochess/insight/internal/cachestrategy/lru"
	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/fen"
	"github.com/discochess/insight/internal/stats"
)

// DefaultCapacity is the number of evaluations kept when none is configured.
const DefaultCapacity = 200_000

// Cache is safe for concurrent use when its strategy is.
type Cache struct {
	strategy  cachestrategy.Strategy[string, engine.Evaluation]
	collector stats.Collector
}

// New creates an LRU-backed cache. A capacity <= 0 uses DefaultCapacity.
func New(capacity int, collector stats.Collector) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s, err := lru.New[string, engine.Evaluation](capacity)
	if err != nil {
		return nil, err
	}
	return NewWithStrategy(s, collector), nil
}

// NewWithStrategy creates a cache over an arbitrary eviction strategy.
func NewWithStrategy(s cachestrategy.Strategy[string, engine.Evaluation], collector stats.Collector) *Cache {
	return &Cache{strategy: s, collector: stats.OrNoop(collector)}
}

// Get returns the evaluation of position at depth, if cached.
func (c *Cache) Get(position string, depth int) (engine.Evaluation, bool) {
	if c == nil {
		return engine.Evaluation{}, false
	}
	key, ok := cacheKey(position, depth)
	if !ok {
		return engine.Evaluation{}, false
	}
	ev, ok := c.strategy.Get(key)
	if ok {
		c.collector.IncCounter(stats.MetricEvalCacheHits, 1)
	} else {
		c.collector.IncCounter(stats.MetricEvalCacheMisses, 1)
	}
	return ev, ok
}

// Add stores ev for position at depth. Malformed positions are ignored.
func (c *Cache) Add(position string, depth int, ev engine.Evaluation) {
	if c == nil {
		return
	}
	key, ok := cacheKey(position, depth)
	if !ok {
		return
	}
	c.strategy.Add(key, ev)
	c.collector.SetGauge(stats.MetricEvalCacheSize, int64(c.strategy.Len()))
}

// Len returns the number of cached evaluations.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.strategy.Len()
}

func cacheKey(position string, depth int) (string, bool) {
	k, err := fen.Key(position)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(depth) + "|" + k, true
}
