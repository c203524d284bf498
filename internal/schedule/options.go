package schedule

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/evalcache"
	"github.com/discochess/insight/internal/stats"
)

const (
	// DefaultStallTimeout bounds the wait between two evaluations of a game.
	DefaultStallTimeout = 30 * time.Second
	// DefaultRetries is how often a position is resubmitted after the engine
	// finished a search without an evaluation.
	DefaultRetries = 1
)

type settings struct {
	stall     time.Duration
	retries   int
	cache     *evalcache.Cache
	logger    *zap.Logger
	collector stats.Collector
}

func defaultSettings() settings {
	return settings{
		stall:     DefaultStallTimeout,
		retries:   DefaultRetries,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
}

// Option configures a Pool.
type Option func(*settings)

// WithStallTimeout sets how long a game may go without a new evaluation
// before it is abandoned with ErrStall.
func WithStallTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.stall = d
		}
	}
}

// WithRetries sets how often a position is resubmitted.
func WithRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithEvalCache shares an evaluation cache between all workers.
func WithEvalCache(c *evalcache.Cache) Option {
	return func(s *settings) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCollector sets the stats collector.
func WithCollector(c stats.Collector) Option {
	return func(s *settings) { s.collector = stats.OrNoop(c) }
}
