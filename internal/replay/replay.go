// Package replay applies a game's moves to a board and exposes every
// position reached, so later stages can evaluate or inspect them.
package replay

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/insight/internal/fen"
)

// ErrIllegalMove is returned when a move cannot be applied to the position.
var ErrIllegalMove = errors.New("replay: illegal move")

// Position is one board state in a replayed game.
type Position struct {
	FEN         string
	WhiteToMove bool
	Material    fen.Material
}

// Replay applies moves (SAN) from the initial position. The result holds
// len(moves)+1 positions: the starting position followed by the position
// after each half-move.
func Replay(moves []string) ([]Position, error) {
	g := chess.NewGame()
	positions := make([]Position, 0, len(moves)+1)

	start, err := positionOf(g.Position())
	if err != nil {
		return nil, err
	}
	positions = append(positions, start)

	for i, san := range moves {
		if err := g.MoveStr(san); err != nil {
			return nil, fmt.Errorf("%w: ply %d %q: %v", ErrIllegalMove, i+1, san, err)
		}
		p, err := positionOf(g.Position())
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// FENs returns the FEN after each half-move, without the starting position.
func FENs(moves []string) ([]string, error) {
	positions, err := Replay(moves)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(positions)-1)
	for i, p := range positions[1:] {
		out[i] = p.FEN
	}
	return out, nil
}

func positionOf(pos *chess.Position) (Position, error) {
	s := pos.String()
	m, err := fen.ParseMaterial(s)
	if err != nil {
		return Position{}, fmt.Errorf("reading material of %q: %w", s, err)
	}
	return Position{
		FEN:         s,
		WhiteToMove: pos.Turn() == chess.White,
		Material:    m,
	}, nil
}
