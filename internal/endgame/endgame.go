// Package endgame names the ending a game reached by walking its positions
// backward from the last one until a material signature holds for two
// consecutive positions.
package endgame

import (
	"github.com/discochess/insight/internal/fen"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/replay"
)

// Classify returns the archetype of a position given the subject's and the
// opponent's non-king pieces. Rules are tried in order; the first match wins.
func Classify(subject, opponent fen.Pieces) game.Final {
	onlyPawns := func(p fen.Pieces) bool {
		return p.Knights == 0 && p.Bishops == 0 && p.Rooks == 0 && p.Queens == 0
	}
	noQueens := subject.Queens == 0 && opponent.Queens == 0
	noRooks := subject.Rooks == 0 && opponent.Rooks == 0
	noMinors := subject.Minors() == 0 && opponent.Minors() == 0
	evenPawns := subject.Pawns == opponent.Pawns

	switch {
	case onlyPawns(subject) && onlyPawns(opponent) && subject.Pawns >= 1 && opponent.Pawns == 0:
		return game.KingAndPawnVsKing
	case onlyPawns(subject) && onlyPawns(opponent) && evenPawns:
		return game.EvenPawnFinal
	case noQueens && noMinors && subject.Rooks == opponent.Rooks && evenPawns:
		return game.RookFinal
	case subject.Queens == 1 && opponent.Queens == 1 && noRooks && noMinors && evenPawns:
		return game.QueenFinal
	case noQueens && noRooks && subject.Knights == 0 && opponent.Knights == 0 &&
		subject.Bishops == opponent.Bishops && evenPawns:
		return game.BishopFinal
	case noQueens && noRooks && subject.Bishops == 0 && opponent.Bishops == 0 &&
		subject.Knights == opponent.Knights && evenPawns:
		return game.KnightFinal
	case noQueens && noRooks && subject.Bishops == opponent.Bishops &&
		subject.Knights == opponent.Knights && evenPawns:
		return game.BishopKnightFinal
	case subject.Queens >= 1 && opponent.Queens == 0 && noRooks && noMinors && evenPawns:
		return game.KingAndQueenVsKing
	case noQueens && subject.Rooks >= 1 && opponent.Rooks == 0 && noMinors && evenPawns:
		return game.KingAndRookVsKing
	}
	return game.NoFinal
}

// Result is the outcome of a backward walk.
type Result struct {
	// Final is the first archetype, counting from the end, held by two
	// consecutive positions.
	Final game.Final
	// WinningFinal is set when Final is a winning archetype the
	// evaluation agrees with.
	WinningFinal game.Final
	// Ply is the half-move after which Final was first held, counting from
	// the start of the game. Zero when no archetype was found.
	Ply int
}

// SupportFunc reports whether the evaluation after ply favors the subject.
type SupportFunc func(ply int) bool

// Walk scans signatures, where signatures[i] classifies the position after
// half-move i (signatures[0] is the starting position), from the last
// position backward. It stops at the first archetype other than NoFinal that
// also classifies the next later position.
func Walk(signatures []game.Final, supports SupportFunc) Result {
	later := game.NoFinal
	for i := len(signatures) - 1; i >= 0; i-- {
		current := signatures[i]
		if current != game.NoFinal && current == later {
			res := Result{Final: current, Ply: i}
			if current.Winning() && (supports == nil || supports(i)) {
				res.WinningFinal = current
			}
			return res
		}
		later = current
	}
	return Result{}
}

// Analyze classifies every replayed position from the subject's side and
// walks them. scores, when complete, holds one White-perspective score per
// half-move and decides whether a winning archetype is backed by the
// evaluation; without scores every winning archetype is accepted.
func Analyze(positions []replay.Position, subjectWhite bool, scores []int) Result {
	signatures := make([]game.Final, len(positions))
	for i, p := range positions {
		signatures[i] = Classify(p.Material.Side(subjectWhite), p.Material.Side(!subjectWhite))
	}

	var supports SupportFunc
	if len(scores) > 0 && len(scores) == len(positions)-1 {
		supports = func(ply int) bool {
			if ply == 0 {
				return true
			}
			s := scores[ply-1]
			if !subjectWhite {
				s = -s
			}
			return s > 0
		}
	}
	return Walk(signatures, supports)
}
