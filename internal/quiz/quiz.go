// Package quiz turns analyzed games into replay puzzles and compares games
// against prepared opening lines.
package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/replay"
)

// ErrExhausted is returned by Session.Next when every puzzle was asked.
var ErrExhausted = errors.New("quiz: no puzzles left")

// Kind tells which event produced a puzzle.
type Kind string

const (
	KindMistake    Kind = "mistake"
	KindMissedGain Kind = "missed gain"
)

// Puzzle asks for the engine's choice in a position where the subject
// went wrong.
type Puzzle struct {
	GameURL string
	// Ply is the 1-indexed half-move the subject played.
	Ply  int
	Kind Kind
	// FEN is the position before Ply.
	FEN string
	// Played is the subject's move in SAN.
	Played string
	// Solution is the engine line from FEN in UCI.
	Solution    []string
	SolutionSAN []string
}

// Check reports whether answer, in SAN or UCI, is the first move of the
// solution. An unparseable or illegal answer is an error.
func (p Puzzle) Check(answer string) (bool, error) {
	if len(p.Solution) == 0 {
		return false, nil
	}
	uci, err := replay.ToUCI(p.FEN, answer)
	if err != nil {
		return false, err
	}
	return uci == p.Solution[0], nil
}

// Build returns a puzzle for every subject mistake and missed gain that has
// an engine line for the preceding position. Games scored without main
// lines yield none.
func Build(g *game.Game) ([]Puzzle, error) {
	if len(g.MainLines) == 0 {
		return nil, nil
	}
	positions, err := replay.Replay(g.Moves)
	if err != nil {
		return nil, fmt.Errorf("replaying %s: %w", g.URL, err)
	}

	var out []Puzzle
	add := func(plies []int, kind Kind) error {
		for _, p := range plies {
			if p < 2 || p > len(g.Moves) || p-2 >= len(g.MainLines) || len(g.MainLines[p-2]) == 0 {
				continue
			}
			fen := positions[p-1].FEN
			line := g.MainLines[p-2]
			san, err := replay.ToSAN(fen, line)
			if err != nil {
				return err
			}
			out = append(out, Puzzle{
				GameURL:     g.URL,
				Ply:         p,
				Kind:        kind,
				FEN:         fen,
				Played:      g.Moves[p-1],
				Solution:    line,
				SolutionSAN: san,
			})
		}
		return nil
	}
	if err := add(g.Events.SubjectMistakes, KindMistake); err != nil {
		return nil, err
	}
	if err := add(g.Events.SubjectMissedGains, KindMissedGain); err != nil {
		return nil, err
	}
	return out, nil
}

// Session draws puzzles at random without repetition. The pool itself is
// never modified.
type Session struct {
	pool  []Puzzle
	asked map[int]struct{}
	rng   *rand.Rand
}

// NewSession creates a session over pool. Equal seeds draw equal orders.
func NewSession(pool []Puzzle, seed uint64) *Session {
	return &Session{
		pool:  pool,
		asked: make(map[int]struct{}),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Remaining returns the number of puzzles not yet drawn.
func (s *Session) Remaining() int { return len(s.pool) - len(s.asked) }

// Next draws an unasked puzzle, or returns ErrExhausted.
func (s *Session) Next() (Puzzle, error) {
	left := s.Remaining()
	if left == 0 {
		return Puzzle{}, ErrExhausted
	}
	n := s.rng.IntN(left)
	for i := range s.pool {
		if _, ok := s.asked[i]; ok {
			continue
		}
		if n == 0 {
			s.asked[i] = struct{}{}
			return s.pool[i], nil
		}
		n--
	}
	return Puzzle{}, ErrExhausted
}

// Reset makes every puzzle available again.
func (s *Session) Reset() { clear(s.asked) }
