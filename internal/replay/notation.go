package replay

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ToUCI converts move, given in SAN or UCI, to UCI notation in the position
// described by fenStr.
func ToUCI(fenStr, move string) (string, error) {
	pos, err := load(fenStr)
	if err != nil {
		return "", err
	}
	move = strings.TrimSpace(move)
	if m, err := (chess.UCINotation{}).Decode(pos, move); err == nil && legal(pos, m) {
		return chess.UCINotation{}.Encode(pos, m), nil
	}
	m, err := chess.AlgebraicNotation{}.Decode(pos, move)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrIllegalMove, move, err)
	}
	return chess.UCINotation{}.Encode(pos, m), nil
}

// ToSAN renders a UCI line as SAN, stopping at the first move that does not
// apply.
func ToSAN(fenStr string, line []string) ([]string, error) {
	opt, err := chess.FEN(fenStr)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}
	g := chess.NewGame(opt)
	out := make([]string, 0, len(line))
	for _, u := range line {
		pos := g.Position()
		m, err := chess.UCINotation{}.Decode(pos, u)
		if err != nil || !legal(pos, m) {
			break
		}
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
		if err := g.Move(m); err != nil {
			break
		}
	}
	return out, nil
}

func load(fenStr string) (*chess.Position, error) {
	opt, err := chess.FEN(fenStr)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

func legal(pos *chess.Position, m *chess.Move) bool {
	for _, v := range pos.ValidMoves() {
		if v.S1() == m.S1() && v.S2() == m.S2() && v.Promo() == m.Promo() {
			return true
		}
	}
	return false
}
