// Package fakeengine provides a deterministic in-process engine for tests
// and offline runs.
package fakeengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/fen"
)

// Compile-time check that Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// EvalFunc scores a position from the side to move's point of view.
type EvalFunc func(fen string, depth int) (engine.Evaluation, error)

type job struct {
	gen   uint64
	seq   int
	fen   string
	depth int
}

// Engine evaluates positions with an EvalFunc on a background goroutine.
type Engine struct {
	eval      EvalFunc
	delay     time.Duration
	hang      func(fen string) bool
	duplicate bool

	jobs   chan job
	events chan engine.Event
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	gen uint64
	seq int

	newGames  atomic.Int64
	submitted atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithEval replaces the default material evaluation.
func WithEval(f EvalFunc) Option {
	return func(e *Engine) { e.eval = f }
}

// WithDelay sleeps before each evaluation.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithHang makes the engine never answer positions matching f.
func WithHang(f func(fen string) bool) Option {
	return func(e *Engine) { e.hang = f }
}

// WithDuplicates emits every event twice, as an engine repeating its final
// info line would.
func WithDuplicates() Option {
	return func(e *Engine) { e.duplicate = true }
}

// New starts a fake engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		eval:   Material,
		jobs:   make(chan job, 4096),
		events: make(chan engine.Event, 4096),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.loop()
	return e
}

// Factory returns an engine.Factory producing fake engines.
func Factory(opts ...Option) engine.Factory {
	return func(ctx context.Context) (engine.Engine, error) {
		return New(opts...), nil
	}
}

// NewGame starts a new generation.
func (e *Engine) NewGame(ctx context.Context) (uint64, error) {
	select {
	case <-e.done:
		return 0, engine.ErrClosed
	default:
	}
	e.newGames.Add(1)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.seq = 0
	return e.gen, nil
}

// Submit queues a position.
func (e *Engine) Submit(ctx context.Context, fenStr string, depth int) error {
	e.mu.Lock()
	j := job{gen: e.gen, seq: e.seq, fen: fenStr, depth: depth}
	e.seq++
	e.mu.Unlock()

	select {
	case <-e.done:
		return engine.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case e.jobs <- j:
		e.submitted.Add(1)
		return nil
	}
}

// Events streams results.
func (e *Engine) Events() <-chan engine.Event { return e.events }

// Close stops the engine.
func (e *Engine) Close() error {
	e.once.Do(func() { close(e.done) })
	return nil
}

// NewGames returns how many times NewGame was called.
func (e *Engine) NewGames() int { return int(e.newGames.Load()) }

// Submitted returns how many positions were submitted.
func (e *Engine) Submitted() int { return int(e.submitted.Load()) }

func (e *Engine) current() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Engine) loop() {
	for {
		select {
		case <-e.done:
			return
		case j := <-e.jobs:
			if j.gen != e.current() {
				continue
			}
			if e.hang != nil && e.hang(j.fen) {
				continue
			}
			if e.delay > 0 {
				select {
				case <-time.After(e.delay):
				case <-e.done:
					return
				}
			}
			ev, err := e.eval(j.fen, j.depth)
			out := engine.Event{Generation: j.gen, Seq: j.seq, Eval: ev, Err: err}
			n := 1
			if e.duplicate {
				n = 2
			}
			for i := 0; i < n; i++ {
				select {
				case e.events <- out:
				case <-e.done:
					return
				}
			}
		}
	}
}

var pieceValues = fen.Pieces{Pawns: 100, Knights: 300, Bishops: 300, Rooks: 500, Queens: 900}

// Material scores a position by material balance for the side to move.
func Material(fenStr string, depth int) (engine.Evaluation, error) {
	m, err := fen.ParseMaterial(fenStr)
	if err != nil {
		return engine.Evaluation{}, err
	}
	whiteToMove, err := fen.WhiteToMove(fenStr)
	if err != nil {
		return engine.Evaluation{}, err
	}
	score := value(m.White) - value(m.Black)
	if !whiteToMove {
		score = -score
	}
	return engine.Evaluation{Score: score, Depth: depth}, nil
}

func value(p fen.Pieces) int {
	return p.Pawns*pieceValues.Pawns + p.Knights*pieceValues.Knights +
		p.Bishops*pieceValues.Bishops + p.Rooks*pieceValues.Rooks + p.Queens*pieceValues.Queens
}
