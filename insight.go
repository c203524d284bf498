// Package insight analyzes a chess player's games: it fetches them from a
// source, scores every position with a UCI engine, labels tactical swings
// and endgames, caches the results by month and aggregates them into a
// report.
//
// Example usage:
//
//	a, err := insight.New(
//	    insight.WithSource(chesscom.New()),
//	    insight.WithEngine(uciengine.Factory("stockfish")),
//	    insight.WithStore(memstore.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	res, err := a.Analyze(ctx, insight.Request{Username: "hikaru", TimeClass: game.Blitz})
package insight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/insight/internal/cache"
	"github.com/discochess/insight/internal/classify"
	"github.com/discochess/insight/internal/endgame"
	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/evalcache"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/normalize"
	"github.com/discochess/insight/internal/replay"
	"github.com/discochess/insight/internal/report"
	"github.com/discochess/insight/internal/schedule"
	"github.com/discochess/insight/internal/source"
	"github.com/discochess/insight/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("insight: analyzer closed")

	// ErrNoEngine indicates no engine factory was provided.
	ErrNoEngine = errors.New("insight: no engine provided")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("insight: no store provided")

	// ErrNoSource indicates Analyze was called without a source.
	ErrNoSource = errors.New("insight: no source provided")

	// ErrNoUsername indicates an empty username.
	ErrNoUsername = errors.New("insight: no username")

	// ErrNoGamesFound is reported, not returned, when a fetch yields nothing.
	ErrNoGamesFound = errors.New("insight: no games found")
)

// Request selects the games of one Analyze run.
type Request struct {
	Username  string
	TimeClass game.TimeClass
	// Until is the most recent month to fetch. Zero means now.
	Until      time.Time
	MaxGames   int
	MonthsBack int
	// Depth overrides the analyzer's search depth when positive.
	Depth int
	// Progress is called after every wave.
	Progress schedule.ProgressFunc
}

// Analyzer runs the analysis pipeline. Runs are serialized; an Analyzer is
// safe for concurrent use by multiple goroutines.
type Analyzer struct {
	source     source.Source
	pool       *schedule.Pool
	cache      *cache.Manager
	normalizer *normalize.Normalizer
	evals      *evalcache.Cache

	workers   int
	depth     int
	classify  classify.Options
	mainLines bool
	now       func() time.Time

	stats  stats.Collector
	logger *zap.Logger

	mu     sync.Mutex
	loaded bool
	// games holds the hydrated games of the latest run per username.
	games map[string][]game.Game

	closed atomic.Bool
}

// New creates an Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.store == nil {
		return nil, ErrNoStore
	}

	var evals *evalcache.Cache
	if cfg.evalCacheSize > 0 {
		c, err := evalcache.New(cfg.evalCacheSize, cfg.stats)
		if err != nil {
			return nil, fmt.Errorf("creating evaluation cache: %w", err)
		}
		evals = c
	}

	a := &Analyzer{
		source: cfg.source,
		pool: schedule.NewPool(cfg.engine,
			schedule.WithStallTimeout(cfg.stallTimeout),
			schedule.WithRetries(cfg.retries),
			schedule.WithEvalCache(evals),
			schedule.WithLogger(cfg.logger),
			schedule.WithCollector(cfg.stats),
		),
		cache: cache.New(cfg.store,
			cache.WithCodec(cfg.codec),
			cache.WithLogger(cfg.logger),
			cache.WithCollector(cfg.stats),
		),
		normalizer: normalize.New(cfg.book, cfg.logger),
		evals:      evals,
		workers:    cfg.workers,
		depth:      cfg.depth,
		classify:   classify.Options{Threshold: cfg.threshold, Guard: cfg.guard},
		mainLines:  cfg.mainLines,
		now:        cfg.now,
		stats:      cfg.stats,
		logger:     cfg.logger,
		games:      make(map[string][]game.Game),
	}

	a.logger.Debug("analyzer initialized",
		zap.Int("workers", a.workers),
		zap.Int("depth", a.depth),
		zap.Int("evalCache", cfg.evalCacheSize),
		zap.String("codec", cfg.codec.Name()),
	)
	return a, nil
}

// Analyze fetches the games of req from the source, then analyzes them
// like AnalyzeRecords. User lookup and fetch failures abort the run before
// any engine work.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if a.source == nil {
		return nil, ErrNoSource
	}
	if req.Username == "" {
		return nil, ErrNoUsername
	}

	username, err := a.source.CanonicalUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", req.Username, err)
	}
	until := req.Until
	if until.IsZero() {
		until = a.now()
	}
	records, err := a.source.Fetch(ctx, source.Query{
		Username:   username,
		TimeClass:  req.TimeClass,
		Until:      until,
		MaxGames:   req.MaxGames,
		MonthsBack: req.MonthsBack,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching games of %s: %w", username, err)
	}

	req.Username = username
	return a.AnalyzeRecords(ctx, req, records)
}

// AnalyzeRecords analyzes records for req.Username, which must already be
// canonical. Games cached at req's depth or deeper are reused; the rest
// are normalized, scored and classified, then written back to the cache.
// Per-game failures are reported in the result.
func (a *Analyzer) AnalyzeRecords(ctx context.Context, req Request, records []game.Record) (*Result, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if req.Username == "" {
		return nil, ErrNoUsername
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	depth := req.Depth
	if depth <= 0 {
		depth = a.depth
	}
	res := &Result{RunID: uuid.NewString(), Username: req.Username, Depth: depth}
	logger := a.logger.With(zap.String("run", res.RunID), zap.String("user", req.Username))
	start := time.Now()

	if len(records) == 0 {
		logger.Warn("no games found", zap.String("timeClass", string(req.TimeClass)))
		res.Warnings = append(res.Warnings, ErrNoGamesFound)
	}

	a.loadCache(ctx, logger)
	cached := a.cachedGames(ctx, logger, req.Username, depth)

	var (
		pending []game.Game
		jobs    []schedule.Job
	)
	for _, rec := range records {
		if g, ok := cached[rec.URL]; ok {
			res.Games = append(res.Games, g)
			res.Cached++
			continue
		}
		g, err := a.normalizer.Normalize(rec, req.Username)
		if err != nil {
			res.fail(rec.URL, StageNormalize, err)
			logger.Warn("game skipped", zap.String("url", rec.URL), zap.Error(err))
			continue
		}
		pending = append(pending, g)
		jobs = append(jobs, schedule.Job{Key: g.URL, Moves: g.Moves})
	}
	a.stats.IncCounter(stats.MetricGamesCached, int64(res.Cached))

	logger.Info("analysis started",
		zap.Int("games", len(records)),
		zap.Int("cached", res.Cached),
		zap.Int("queued", len(jobs)),
		zap.Int("depth", depth),
	)

	var fresh []game.Game
	if len(jobs) > 0 {
		if err := a.pool.Grow(ctx, a.workers); err != nil {
			logger.Error("starting workers", zap.Error(err))
			return nil, fmt.Errorf("starting workers: %w", err)
		}
		results, err := a.pool.Run(ctx, jobs, depth, req.Progress)
		if err != nil {
			logger.Error("evaluating games", zap.Error(err))
			return nil, fmt.Errorf("evaluating games: %w", err)
		}

		for i, r := range results {
			g := pending[i]
			if r.Err != nil {
				res.fail(g.URL, StageEvaluate, r.Err)
				continue
			}
			if err := a.hydrate(&g, r.Evals, depth); err != nil {
				res.fail(g.URL, StageClassify, err)
				logger.Warn("game skipped", zap.String("url", g.URL), zap.Error(err))
				continue
			}
			fresh = append(fresh, g)
		}
	}
	a.stats.IncCounter(stats.MetricGamesAnalyzed, int64(len(fresh)))
	a.stats.IncCounter(stats.MetricGamesFailed, int64(len(res.Failed)))
	res.Analyzed = len(fresh)

	if len(fresh) > 0 {
		buckets, err := a.cache.Put(ctx, fresh, req.Username)
		if err != nil {
			logger.Warn("cache write failed", zap.Error(err))
			res.Warnings = append(res.Warnings, err)
		}
		res.Buckets = buckets
	}

	res.Games = append(res.Games, fresh...)
	sort.SliceStable(res.Games, func(i, j int) bool { return res.Games[i].EndTime.Before(res.Games[j].EndTime) })
	res.Report = report.Build(res.Games)
	a.games[req.Username] = res.Games

	logger.Info("analysis finished",
		zap.Int("analyzed", res.Analyzed),
		zap.Int("cached", res.Cached),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// hydrate attaches scores, events and endgame tags to g.
func (a *Analyzer) hydrate(g *game.Game, evals []engine.Evaluation, depth int) error {
	raw := make([]int, len(evals))
	for i, ev := range evals {
		raw[i] = ev.Score
	}
	g.Depth = depth
	g.Scores = classify.FixedPerspective(raw)
	g.Events = classify.Events(g.Scores, g.SubjectWhite, a.classify)
	g.ScoreOutOfOpening = classify.ScoreOutOfOpening(g.Scores)

	if a.mainLines {
		g.MainLines = make([][]string, len(evals))
		for i, ev := range evals {
			g.MainLines[i] = ev.PV
		}
	}

	positions, err := replay.Replay(g.Moves)
	if err != nil {
		return err
	}
	end := endgame.Analyze(positions, g.SubjectWhite, g.Scores)
	g.Final = end.Final
	g.WinningFinal = end.WinningFinal
	return nil
}

// loadCache checks the cache version once per analyzer. Failures leave
// the cache usable as a write target.
func (a *Analyzer) loadCache(ctx context.Context, logger *zap.Logger) {
	if a.loaded {
		return
	}
	invalidated, err := a.cache.Load(ctx)
	if err != nil {
		logger.Warn("cache load failed", zap.Error(err))
		return
	}
	a.loaded = true
	if invalidated {
		logger.Debug("cache invalidated", zap.Int("version", a.cache.Version()))
	}
}

// cachedGames returns the cached games of username analyzed at depth or
// deeper, keyed by URL.
func (a *Analyzer) cachedGames(ctx context.Context, logger *zap.Logger, username string, depth int) map[string]game.Game {
	buckets, err := a.cache.Get(ctx, username)
	if err != nil {
		logger.Warn("cache read failed", zap.Error(err))
		return nil
	}
	out := make(map[string]game.Game)
	for key, b := range buckets {
		if b.Stale(depth) {
			logger.Debug("bucket stale", zap.String("bucket", key), zap.Int("depth", b.Depth))
		}
		for _, g := range b.Games {
			if g.Depth >= depth {
				out[g.URL] = g
			}
		}
	}
	return out
}

// Buckets returns the cached buckets of username, or every bucket when
// username is empty.
func (a *Analyzer) Buckets(ctx context.Context, username string) (map[string]cache.Bucket, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadCache(ctx, a.logger)
	return a.cache.Get(ctx, username)
}

// Games returns the hydrated games of username's latest run.
func (a *Analyzer) Games(username string) []game.Game {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.games[username]
}

// DeleteBucket removes one cache bucket and drops its games from the
// in-memory results of every user.
func (a *Analyzer) DeleteBucket(ctx context.Context, key string) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if _, err := cache.ParseBucketKey(key); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	urls, err := a.cache.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("deleting bucket %q: %w", key, err)
	}
	for user, games := range a.games {
		a.games[user] = cache.Purge(games, urls)
	}
	a.logger.Info("bucket deleted", zap.String("bucket", key), zap.Int("games", len(urls)))
	return nil
}

// Close stops every engine worker. After Close, the analyzer should not be
// used.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.pool.Close(); err != nil {
		return fmt.Errorf("closing workers: %w", err)
	}
	if a.evals != nil {
		a.stats.SetGauge(stats.MetricEvalCacheSize, int64(a.evals.Len()))
	}
	return nil
}
