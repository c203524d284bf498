package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/stats"
)

// Job is one game to evaluate.
type Job struct {
	// Key identifies the game in logs, usually its URL.
	Key   string
	Moves []string
}

// Result is the outcome of one Job.
type Result struct {
	// Evals holds one side-to-move evaluation per half-move when Err is nil.
	Evals []engine.Evaluation
	Err   error
}

// Progress is reported after each wave.
type Progress struct {
	Wave  int
	Waves int
	// Done counts finished games, failed ones included.
	Done  int
	Total int
}

// Percent returns Done as a percentage of Total.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return 100 * float64(p.Done) / float64(p.Total)
}

// ProgressFunc receives progress updates.
type ProgressFunc func(Progress)

// Pool owns a set of workers. Its size changes only between batches.
type Pool struct {
	factory engine.Factory
	s       settings

	mu      sync.Mutex
	running bool
	workers []*Worker
}

// NewPool creates an empty pool whose workers are built by factory.
func NewPool(factory engine.Factory, opts ...Option) *Pool {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Pool{factory: factory, s: s}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Grow starts workers until the pool holds n. It never shrinks the pool.
func (p *Pool) Grow(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrBusy
	}
	for len(p.workers) < n {
		eng, err := p.factory(ctx)
		if err != nil {
			return fmt.Errorf("schedule: starting worker %d: %w", len(p.workers), err)
		}
		p.workers = append(p.workers, &Worker{id: len(p.workers), eng: eng, s: &p.s})
		p.s.logger.Debug("worker started", zap.Int("worker", len(p.workers)-1))
	}
	return nil
}

// Run evaluates jobs at depth, one wave at a time. The returned slice is
// indexed like jobs. A failing game never stops its siblings; cancelling
// ctx fails every game not yet finished.
func (p *Pool) Run(ctx context.Context, jobs []Job, depth int, progress ProgressFunc) ([]Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	if len(p.workers) == 0 {
		p.mu.Unlock()
		return nil, ErrNoWorkers
	}
	p.running = true
	workers := p.workers
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	results := make([]Result, len(jobs))
	waves := Waves(len(jobs), len(workers))
	done := 0

	for n, wave := range waves {
		if err := ctx.Err(); err != nil {
			for _, idx := range wave {
				results[idx].Err = err
			}
			done += len(wave)
			continue
		}

		start := time.Now()
		var g errgroup.Group
		for slot, idx := range wave {
			w := workers[slot]
			job := jobs[idx]
			if err := p.revive(ctx, w); err != nil {
				results[idx].Err = fmt.Errorf("worker %d: %w: %w", w.id, ErrWorkerDown, err)
				p.s.logger.Warn("game excluded from batch",
					zap.String("game", job.Key),
					zap.Int("worker", w.id),
					zap.Error(results[idx].Err),
				)
				continue
			}
			g.Go(func() error {
				evals, err := w.Evaluate(ctx, job.Moves, depth)
				results[idx] = Result{Evals: evals, Err: err}
				if err != nil {
					p.s.logger.Warn("game excluded from batch",
						zap.String("game", job.Key),
						zap.Int("worker", w.id),
						zap.Error(err),
					)
				}
				return nil
			})
		}
		_ = g.Wait()

		p.s.collector.ObserveHistogram(stats.MetricWaveSeconds, time.Since(start).Seconds())
		done += len(wave)
		p.restartBroken(ctx, wave, results)

		if progress != nil {
			progress(Progress{Wave: n + 1, Waves: len(waves), Done: done, Total: len(jobs)})
		}
	}
	return results, nil
}

// restartBroken replaces the engines of workers whose game ended with a
// closed engine or a stall, so the next wave starts from a fresh process. A
// worker whose restart fails is left without an engine and revived before
// its next game.
func (p *Pool) restartBroken(ctx context.Context, wave []int, results []Result) {
	for slot, idx := range wave {
		err := results[idx].Err
		if !errors.Is(err, engine.ErrClosed) && !errors.Is(err, ErrStall) {
			continue
		}
		p.mu.Lock()
		w := p.workers[slot]
		p.mu.Unlock()
		if w.eng == nil {
			continue
		}

		if err := w.eng.Close(); err != nil {
			p.s.logger.Debug("closing stalled engine", zap.Int("worker", w.id), zap.Error(err))
		}
		w.eng = nil
		if err := p.revive(ctx, w); err != nil {
			p.s.logger.Error("restarting worker", zap.Int("worker", w.id), zap.Error(err))
		}
	}
}

// revive starts an engine for a worker that has none.
func (p *Pool) revive(ctx context.Context, w *Worker) error {
	if w.eng != nil {
		return nil
	}
	eng, err := p.factory(ctx)
	if err != nil {
		return err
	}
	w.eng = eng
	p.s.logger.Debug("worker restarted", zap.Int("worker", w.id))
	return nil
}

// Close stops every worker.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, w := range p.workers {
		if w.eng == nil {
			continue
		}
		if err := w.eng.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.workers = nil
	return errors.Join(errs...)
}
