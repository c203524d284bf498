package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/replay"
	"github.com/discochess/insight/internal/stats"
)

var (
	// ErrStall is returned when a game receives no evaluation within the
	// stall timeout.
	ErrStall = errors.New("schedule: engine stalled")
	// ErrBusy is returned when the pool is resized while a batch runs.
	ErrBusy = errors.New("schedule: pool is running a batch")
	// ErrNoWorkers is returned when a batch is run on an empty pool.
	ErrNoWorkers = errors.New("schedule: pool has no workers")
	// ErrWorkerDown is reported for a game assigned to a worker whose engine
	// could not be restarted.
	ErrWorkerDown = errors.New("schedule: worker engine is down")
)

// Worker evaluates one game at a time on its engine. eng is nil while the
// worker waits for a restart.
type Worker struct {
	id  int
	eng engine.Engine
	s   *settings
}

// Evaluate starts a new game on the engine, submits the position after each
// half-move and waits until every ply has an evaluation. Evaluations are
// side-to-move relative, one per move.
func (w *Worker) Evaluate(ctx context.Context, moves []string, depth int) ([]engine.Evaluation, error) {
	fens, err := replay.FENs(moves)
	if err != nil {
		return nil, err
	}

	gen, err := w.eng.NewGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("worker %d: new game: %w", w.id, err)
	}

	col := newCollector(len(fens))
	var seqs []int // engine submission index -> ply
	handled := make(map[int]bool)
	attempts := make([]int, len(fens))

	submit := func(ply int) error {
		if err := w.eng.Submit(ctx, fens[ply], depth); err != nil {
			return fmt.Errorf("worker %d: submit ply %d: %w", w.id, ply+1, err)
		}
		seqs = append(seqs, ply)
		attempts[ply]++
		return nil
	}

	for ply, f := range fens {
		if ev, ok := w.s.cache.Get(f, depth); ok {
			col.fill(ply, ev)
			continue
		}
		if err := submit(ply); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(w.s.stall)
	defer timer.Stop()

	for {
		if evals, ok := col.values(); ok {
			return evals, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			w.s.collector.IncCounter(stats.MetricEngineStalls, 1)
			return nil, fmt.Errorf("worker %d: %w: %d of %d plies missing after %s",
				w.id, ErrStall, col.missing(), len(fens), w.s.stall)

		case ev, ok := <-w.eng.Events():
			if !ok {
				return nil, fmt.Errorf("worker %d: %w", w.id, engine.ErrClosed)
			}
			if ev.Generation != gen || ev.Seq < 0 || ev.Seq >= len(seqs) {
				continue
			}
			if handled[ev.Seq] {
				continue
			}
			handled[ev.Seq] = true
			ply := seqs[ev.Seq]

			if ev.Err != nil {
				if errors.Is(ev.Err, engine.ErrNoEvaluation) && attempts[ply] <= w.s.retries {
					w.s.logger.Debug("resubmitting position",
						zap.Int("worker", w.id),
						zap.Int("ply", ply+1),
						zap.Error(ev.Err),
					)
					if err := submit(ply); err != nil {
						return nil, err
					}
					continue
				}
				return nil, fmt.Errorf("worker %d: ply %d: %w", w.id, ply+1, ev.Err)
			}

			if col.fill(ply, ev.Eval) {
				w.s.cache.Add(fens[ply], depth, ev.Eval)
				w.s.collector.IncCounter(stats.MetricPositionsEvaluated, 1)
				timer.Reset(w.s.stall)
			}
		}
	}
}
