package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Movetext is the parsed move section of a PGN.
type Movetext struct {
	// Moves are half-moves in SAN.
	Moves []string
	// Clock readings in seconds, from the %clk annotation after each side's
	// moves. Moves without an annotation add no reading.
	WhiteClock []float64
	BlackClock []float64
}

// Text renders the half-moves as numbered movetext, e.g. "1. e4 e5 2. Nf3".
func (m Movetext) Text() string {
	var b strings.Builder
	for i, mv := range m.Moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteString(strconv.Itoa(i/2 + 1))
			b.WriteString(". ")
		}
		b.WriteString(mv)
	}
	return b.String()
}

// ParseMovetext decodes a PGN or bare movetext from the standard starting
// position. Variations, NAGs and the result token are dropped; the comments
// attached to each half-move are searched for a %clk reading.
func ParseMovetext(pgn string) (mt Movetext, err error) {
	// The decoder indexes the previous move when it meets a comment, so a
	// comment ahead of the first move panics.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return Movetext{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	g := chess.NewGame(opt)

	moves := g.Moves()
	positions := g.Positions()
	comments := g.Comments()

	mt.Moves = make([]string, len(moves))
	for i, m := range moves {
		mt.Moves[i] = chess.AlgebraicNotation{}.Encode(positions[i], m)

		if i >= len(comments) {
			continue
		}
		secs, ok := clockOf(comments[i])
		if !ok {
			continue
		}
		if i%2 == 0 {
			mt.WhiteClock = append(mt.WhiteClock, secs)
		} else {
			mt.BlackClock = append(mt.BlackClock, secs)
		}
	}
	return mt, nil
}

// clockOf returns the first %clk reading among the comments of one move.
func clockOf(comments []string) (float64, bool) {
	for _, c := range comments {
		i := strings.Index(c, "%clk")
		if i < 0 {
			continue
		}
		fields := strings.Fields(c[i+len("%clk"):])
		if len(fields) == 0 {
			continue
		}
		if secs, ok := parseClock(strings.TrimRight(fields[0], "]")); ok {
			return secs, true
		}
	}
	return 0, false
}

// parseClock reads "H:MM:SS(.f)" or "M:SS(.f)" as seconds.
func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var secs float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		secs = secs*60 + v
	}
	return secs, true
}
