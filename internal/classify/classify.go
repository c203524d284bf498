// Package classify turns raw engine scores into a fixed-perspective series
// and labels each half-move by the swing it caused.
package classify

import "github.com/discochess/insight/internal/game"

// DefaultThreshold is the swing, in centipawns, that makes a half-move notable.
const DefaultThreshold = 360

// Options tunes Events.
type Options struct {
	// Threshold is the absolute swing a half-move must exceed to be labeled.
	// Zero means DefaultThreshold.
	Threshold int
	// Guard, when positive, skips plies whose resulting score lies outside
	// [-Guard, Guard], so swings inside decided positions are not labeled.
	Guard int
}

func (o Options) threshold() int {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// FixedPerspective converts side-to-move scores to White's perspective.
// raw[i] scores the position after half-move i+1, so Black is to move at
// every even index.
func FixedPerspective(raw []int) []int {
	out := make([]int, len(raw))
	for i, s := range raw {
		if i%2 == 0 {
			s = -s
		}
		out[i] = s
	}
	return out
}

// Events labels the half-moves of a White-perspective series. Plies are
// 1-indexed; ply i is scored by scores[i-1] and White plays the odd plies.
//
// A swing on a half-move that immediately follows the other side's mistake
// is counted as a missed gain rather than a second mistake.
func Events(scores []int, subjectWhite bool, opts Options) game.EventSet {
	var set game.EventSet
	if len(scores) == 0 {
		return set
	}
	threshold := opts.threshold()

	prev := scores[0]
	for i := 1; i <= len(scores); i++ {
		score := scores[i-1]
		delta := score - prev
		prev = score

		if opts.Guard > 0 && (score > opts.Guard || score < -opts.Guard) {
			continue
		}

		whiteMoved := i%2 == 1
		subjectMoved := whiteMoved == subjectWhite
		// Swings are measured for White; flip them into the mover's favor.
		forMover := delta
		if !whiteMoved {
			forMover = -delta
		}

		switch {
		case forMover > threshold:
			if subjectMoved {
				set.SubjectGoodMoves = append(set.SubjectGoodMoves, i)
			} else {
				set.OpponentGoodMoves = append(set.OpponentGoodMoves, i)
			}
		case forMover < -threshold:
			if subjectMoved {
				if game.Contains(set.OpponentMistakes, i-1) {
					set.SubjectMissedGains = append(set.SubjectMissedGains, i)
				} else {
					set.SubjectMistakes = append(set.SubjectMistakes, i)
				}
			} else {
				if game.Contains(set.SubjectMistakes, i-1) {
					set.OpponentMissedGains = append(set.OpponentMissedGains, i)
				} else {
					set.OpponentMistakes = append(set.OpponentMistakes, i)
				}
			}
		}
	}
	return set
}

// ScoreOutOfOpening returns the score once the opening is over: the score
// after the twenty-first half-move, or the last score of a shorter game.
func ScoreOutOfOpening(scores []int) int {
	switch {
	case len(scores) == 0:
		return 0
	case len(scores) > 20:
		return scores[20]
	default:
		return scores[len(scores)-1]
	}
}
