// Package fen reads the fields of a FEN string the pipeline needs: piece
// counts for endgame signatures, the side to move for score orientation and
// a move-counter free key for evaluation caching.
package fen

import (
	"errors"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("fen: invalid notation")

// Pieces counts the non-king pieces of one side.
type Pieces struct {
	Pawns   int
	Knights int
	Bishops int
	Rooks   int
	Queens  int
}

// Minors returns the number of bishops and knights.
func (p Pieces) Minors() int { return p.Bishops + p.Knights }

// Material holds the piece counts of both sides.
type Material struct {
	White Pieces
	Black Pieces
}

// Side returns the counts for White when white is true, otherwise Black.
func (m Material) Side(white bool) Pieces {
	if white {
		return m.White
	}
	return m.Black
}

// Key returns a FEN reduced to placement, side to move, castling rights and
// en passant square. Two positions that differ only in move counters share a key.
func Key(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}
	if !validPlacement(parts[0]) {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return strings.Join(parts[:4], " "), nil
}

// ParseMaterial counts pieces in the placement field.
func ParseMaterial(fen string) (Material, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return Material{}, ErrInvalidFEN
	}

	var m Material
	for _, ch := range parts[0] {
		side := &m.White
		if ch >= 'a' && ch <= 'z' {
			side = &m.Black
		}
		switch ch {
		case 'P', 'p':
			side.Pawns++
		case 'N', 'n':
			side.Knights++
		case 'B', 'b':
			side.Bishops++
		case 'R', 'r':
			side.Rooks++
		case 'Q', 'q':
			side.Queens++
		case 'K', 'k', '/', '1', '2', '3', '4', '5', '6', '7', '8':
		default:
			return Material{}, ErrInvalidFEN
		}
	}
	return m, nil
}

// WhiteToMove reports whether White is to move.
func WhiteToMove(fen string) (bool, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return false, ErrInvalidFEN
	}
	switch parts[1] {
	case "w":
		return true, nil
	case "b":
		return false, nil
	}
	return false, ErrInvalidFEN
}

func validPlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}
	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", ch):
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}
	return true
}
