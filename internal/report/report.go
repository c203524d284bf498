// Package report aggregates analyzed games into the per-player statistics
// shown to the user: openings, tactics by game stage, conversion of large
// advantages, time management and endgames.
package report

import (
	"sort"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/opening"
)

// Stage boundaries, in plies.
const (
	OpeningEnd    = 15
	MiddlegameEnd = 30
)

// AdvantageMargin is the subject-relative score out of the opening that
// counts as an advantage or a disadvantage.
const AdvantageMargin = 150

// ConversionThresholds are the advantages, in centipawns, the conversion
// tables are computed for.
var ConversionThresholds = []int{1500, 2000, 3000, 4000}

// conversionTail is the number of final scores ignored by the conversion
// tables; mates found in the last moves say nothing about conversion.
const conversionTail = 3

// Tally counts results from the subject's point of view.
type Tally struct {
	Win  int
	Draw int
	Loss int
}

// Add counts one outcome.
func (t *Tally) Add(o game.Outcome) {
	switch o {
	case game.Win:
		t.Win++
	case game.Loss:
		t.Loss++
	default:
		t.Draw++
	}
}

// Total returns the number of games counted.
func (t Tally) Total() int { return t.Win + t.Draw + t.Loss }

// WinRate returns wins over games, zero for an empty tally.
func (t Tally) WinRate() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Win) / float64(t.Total())
}

// LossRate returns losses over games, zero for an empty tally.
func (t Tally) LossRate() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Loss) / float64(t.Total())
}

// Stage is a phase of the game.
type Stage int

const (
	Opening Stage = iota
	Middlegame
	Endgame
)

// Stages lists every stage in order.
var Stages = []Stage{Opening, Middlegame, Endgame}

func (s Stage) String() string {
	switch s {
	case Opening:
		return "opening"
	case Middlegame:
		return "middlegame"
	default:
		return "endgame"
	}
}

// StageOf returns the stage a 1-indexed ply belongs to.
func StageOf(ply int) Stage {
	switch {
	case ply <= OpeningEnd:
		return Opening
	case ply < MiddlegameEnd:
		return Middlegame
	default:
		return Endgame
	}
}

// Tactics counts labeled plies for one stage.
type Tactics struct {
	SubjectMistakes     int
	SubjectMissedGains  int
	SubjectGoodMoves    int
	OpponentMistakes    int
	OpponentMissedGains int
	OpponentGoodMoves   int
}

// Conversion holds the results of games where either side once held a
// given advantage.
type Conversion struct {
	Threshold int
	// Ahead tallies games in which the subject was ahead by more than
	// Threshold. Ahead.WinRate is the subject's conversion rate,
	// Ahead.LossRate the opponent's resourcefulness.
	Ahead Tally
	// Behind tallies games in which the subject was behind by more than
	// Threshold. Behind.WinRate is the subject's resourcefulness,
	// Behind.LossRate the opponent's conversion rate.
	Behind Tally
}

// Standing tells which side is ahead, on the board or on the clock.
type Standing int

const (
	Even Standing = iota
	Ahead
	Behind
)

func (s Standing) String() string {
	switch s {
	case Ahead:
		return "ahead"
	case Behind:
		return "behind"
	default:
		return "even"
	}
}

// Report is the aggregate over a set of games.
type Report struct {
	Games   int
	Results Tally
	White   Tally
	Black   Tally

	// Openings are keyed by full name, Families by the part before ':'.
	OpeningsWhite map[string]Tally
	OpeningsBlack map[string]Tally
	FamiliesWhite map[string]Tally
	FamiliesBlack map[string]Tally

	// OutOfOpening tallies results by the subject's standing once the
	// opening is over.
	OutOfOpening map[Standing]Tally

	Tactics map[Stage]Tactics
	// MistakesPerGame summarizes subject mistakes per scored game.
	MistakesPerGame Summary
	// ColorMistakes compares mistakes per game as White and as Black.
	ColorMistakes Comparison

	Conversions []Conversion
	Time        map[Standing]Tally

	// Finals tallies results per reached ending, WinningFinals per
	// sustained winning ending.
	Finals        map[game.Final]Tally
	WinningFinals map[game.Final]Tally
}

// Build aggregates games. Games without a complete score series count
// towards results, openings, clocks and endings only.
func Build(games []game.Game) Report {
	r := Report{
		Games:         len(games),
		OpeningsWhite: make(map[string]Tally),
		OpeningsBlack: make(map[string]Tally),
		FamiliesWhite: make(map[string]Tally),
		FamiliesBlack: make(map[string]Tally),
		OutOfOpening:  make(map[Standing]Tally),
		Tactics:       make(map[Stage]Tactics),
		Time:          make(map[Standing]Tally),
		Finals:        make(map[game.Final]Tally),
		WinningFinals: make(map[game.Final]Tally),
	}
	conversions := make([]Conversion, len(ConversionThresholds))
	for i, th := range ConversionThresholds {
		conversions[i].Threshold = th
	}

	var mistakes, mistakesWhite, mistakesBlack []float64

	for i := range games {
		g := &games[i]
		r.Results.Add(g.Outcome)
		if g.SubjectWhite {
			r.White.Add(g.Outcome)
		} else {
			r.Black.Add(g.Outcome)
		}

		if g.Opening.Known() {
			name, family := g.Opening.Name, opening.Family(g.Opening.Name)
			if g.SubjectWhite {
				addTo(r.OpeningsWhite, name, g.Outcome)
				addTo(r.FamiliesWhite, family, g.Outcome)
			} else {
				addTo(r.OpeningsBlack, name, g.Outcome)
				addTo(r.FamiliesBlack, family, g.Outcome)
			}
		}

		addTo(r.Time, ClockStanding(g), g.Outcome)
		addTo(r.Finals, g.Final, g.Outcome)
		if g.WinningFinal != game.NoFinal {
			addTo(r.WinningFinals, g.WinningFinal, g.Outcome)
		}

		if !g.Scored() {
			continue
		}

		addTo(r.OutOfOpening, OpeningStanding(g), g.Outcome)

		countStages(r.Tactics, g.Events)
		n := float64(len(g.Events.SubjectMistakes))
		mistakes = append(mistakes, n)
		if g.SubjectWhite {
			mistakesWhite = append(mistakesWhite, n)
		} else {
			mistakesBlack = append(mistakesBlack, n)
		}

		convert(conversions, g)
	}

	r.MistakesPerGame = Describe(mistakes)
	r.ColorMistakes = Compare(mistakesWhite, mistakesBlack)
	r.Conversions = conversions
	return r
}

// OpeningStanding classifies the subject's position once the opening is
// over: Ahead for an advantage, Behind for a disadvantage.
func OpeningStanding(g *game.Game) Standing {
	s := g.Relative(g.ScoreOutOfOpening)
	switch {
	case s > AdvantageMargin:
		return Ahead
	case s < -AdvantageMargin:
		return Behind
	default:
		return Even
	}
}

// ClockStanding returns who first trailed on the clock by more than a
// quarter of the starting time.
func ClockStanding(g *game.Game) Standing {
	subject, opponent := g.SubjectClock(), g.OpponentClock()
	if len(g.WhiteClock) == 0 {
		return Even
	}
	margin := g.WhiteClock[0] / 4
	for i := 0; i < len(subject) && i < len(opponent); i++ {
		switch {
		case subject[i] < opponent[i]-margin:
			return Behind
		case opponent[i] < subject[i]-margin:
			return Ahead
		}
	}
	return Even
}

func convert(conversions []Conversion, g *game.Game) {
	scores := g.Scores
	if len(scores) > conversionTail {
		scores = scores[:len(scores)-conversionTail]
	} else {
		scores = nil
	}
	best, worst := 0, 0
	for _, s := range scores {
		s = g.Relative(s)
		best = max(best, s)
		worst = min(worst, s)
	}
	for i := range conversions {
		c := &conversions[i]
		if best > c.Threshold {
			c.Ahead.Add(g.Outcome)
		}
		if worst < -c.Threshold {
			c.Behind.Add(g.Outcome)
		}
	}
}

func countStages(tactics map[Stage]Tactics, ev game.EventSet) {
	count := func(plies []int, field func(*Tactics) *int) {
		for _, p := range plies {
			st := StageOf(p)
			t := tactics[st]
			*field(&t)++
			tactics[st] = t
		}
	}
	count(ev.SubjectMistakes, func(t *Tactics) *int { return &t.SubjectMistakes })
	count(ev.SubjectMissedGains, func(t *Tactics) *int { return &t.SubjectMissedGains })
	count(ev.SubjectGoodMoves, func(t *Tactics) *int { return &t.SubjectGoodMoves })
	count(ev.OpponentMistakes, func(t *Tactics) *int { return &t.OpponentMistakes })
	count(ev.OpponentMissedGains, func(t *Tactics) *int { return &t.OpponentMissedGains })
	count(ev.OpponentGoodMoves, func(t *Tactics) *int { return &t.OpponentGoodMoves })
}

func addTo[K comparable](m map[K]Tally, k K, o game.Outcome) {
	t := m[k]
	t.Add(o)
	m[k] = t
}

// Ranked returns the entries of m sorted by games played, most first, then
// by name.
func Ranked(m map[string]Tally) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := m[names[i]].Total(), m[names[j]].Total()
		if ti != tj {
			return ti > tj
		}
		return names[i] < names[j]
	})
	return names
}
