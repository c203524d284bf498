package insight

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/classify"
	"github.com/discochess/insight/internal/codec"
	"github.com/discochess/insight/internal/codec/noopcodec"
	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/evalcache"
	"github.com/discochess/insight/internal/opening"
	"github.com/discochess/insight/internal/schedule"
	"github.com/discochess/insight/internal/source"
	"github.com/discochess/insight/internal/stats"
	"github.com/discochess/insight/internal/store"
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	source source.Source
	engine engine.Factory
	store  store.Store
	codec  codec.Codec
	book   *opening.Book

	workers       int
	depth         int
	stallTimeout  time.Duration
	retries       int
	threshold     int
	guard         int
	mainLines     bool
	evalCacheSize int
	now           func() time.Time

	stats  stats.Collector
	logger *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		codec:         noopcodec.New(),
		book:          opening.Default(),
		workers:       2,
		depth:         12,
		stallTimeout:  schedule.DefaultStallTimeout,
		retries:       schedule.DefaultRetries,
		threshold:     classify.DefaultThreshold,
		mainLines:     true,
		evalCacheSize: evalcache.DefaultCapacity,
		now:           time.Now,
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithSource sets where Analyze fetches games from.
func WithSource(s source.Source) Option {
	return optionFunc(func(o *options) {
		o.source = s
	})
}

// WithEngine sets the factory that starts one engine per worker.
func WithEngine(f engine.Factory) Option {
	return optionFunc(func(o *options) {
		o.engine = f
	})
}

// WithStore sets the blob store the result cache persists to.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithCodec sets the compression applied to cache buckets.
// If not set, buckets are stored uncompressed.
func WithCodec(c codec.Codec) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.codec = c
		}
	})
}

// WithOpeningBook replaces the embedded opening catalog.
func WithOpeningBook(b *opening.Book) Option {
	return optionFunc(func(o *options) {
		if b != nil {
			o.book = b
		}
	})
}

// WithWorkers sets the engine pool size. Default is 2.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.workers = n
		}
	})
}

// WithDepth sets the default search depth. Default is 12.
func WithDepth(d int) Option {
	return optionFunc(func(o *options) {
		if d > 0 {
			o.depth = d
		}
	})
}

// WithStallTimeout bounds the wait for one position's evaluation.
func WithStallTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.stallTimeout = d
	})
}

// WithRetries sets how often a position that ended without an evaluation
// is resubmitted.
func WithRetries(n int) Option {
	return optionFunc(func(o *options) {
		o.retries = n
	})
}

// WithThreshold sets the swing that labels a half-move. Default is 360.
func WithThreshold(cp int) Option {
	return optionFunc(func(o *options) {
		o.threshold = cp
	})
}

// WithGuard skips swings that land beyond ±cp. Zero disables it.
func WithGuard(cp int) Option {
	return optionFunc(func(o *options) {
		o.guard = cp
	})
}

// WithMainLines controls whether engine lines are kept per half-move.
func WithMainLines(on bool) Option {
	return optionFunc(func(o *options) {
		o.mainLines = on
	})
}

// WithEvalCacheSize sets the capacity of the shared evaluation cache.
// Zero disables it.
func WithEvalCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.evalCacheSize = n
	})
}

// WithClock sets the time source used when a request has no Until.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.now = now
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = stats.OrNoop(c)
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}
