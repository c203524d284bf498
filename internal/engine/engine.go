// Package engine defines the contract between the scheduler and an
// evaluation engine, plus the UCI line parsing every engine shares.
//
// An Engine evaluates positions submitted for the current game and streams
// one Event per position. NewGame starts a new generation: events still in
// flight for an earlier game carry the old generation and must be ignored.
package engine

import (
	"context"
	"errors"
)

// MateScore is the magnitude a forced mate is saturated to.
const MateScore = 100000

var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine: closed")
	// ErrNoEvaluation is reported when a search ends without a usable info line.
	ErrNoEvaluation = errors.New("engine: search ended without evaluation")
)

// Evaluation is a finished search of one position.
type Evaluation struct {
	// Score is in centipawns from the side to move's point of view. Mates
	// are saturated to ±MateScore.
	Score int
	// Mate is the signed mate distance reported by the engine, zero when the
	// score is not a mate.
	Mate  int
	Depth int
	// PV is the principal variation in UCI notation.
	PV []string
}

// Event reports the evaluation of one submitted position.
type Event struct {
	Generation uint64
	// Seq is the submission index within the generation, starting at zero.
	Seq  int
	Eval Evaluation
	Err  error
}

// Engine is one evaluation worker.
type Engine interface {
	// NewGame discards queued work and declares a new game to the engine.
	// It returns the generation events for the new game will carry.
	NewGame(ctx context.Context) (uint64, error)

	// Submit queues a position for evaluation at depth.
	Submit(ctx context.Context, fen string, depth int) error

	// Events streams results in submission order.
	Events() <-chan Event

	// Close stops the engine.
	Close() error
}

// Factory creates engines for a worker pool.
type Factory func(ctx context.Context) (Engine, error)
