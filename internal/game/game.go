// Package game holds the records that flow through the analysis pipeline:
// the raw record fetched from a platform, the normalized game derived from
// it and the scoring results attached once the engine has run.
package game

import (
	"time"
)

// Platform identifies where a record was fetched from.
type Platform string

const (
	PlatformChessCom Platform = "chesscom"
	PlatformLichess  Platform = "lichess"
	PlatformPGN      Platform = "pgn"
)

// TimeClass is the time-control class of a game.
type TimeClass string

const (
	Bullet TimeClass = "bullet"
	Blitz  TimeClass = "blitz"
	Rapid  TimeClass = "rapid"
)

// ParseTimeClass validates s as a time class.
func ParseTimeClass(s string) (TimeClass, bool) {
	switch tc := TimeClass(s); tc {
	case Bullet, Blitz, Rapid:
		return tc, true
	}
	return "", false
}

// Player is one side of a record as reported by the platform.
type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	// Result is the platform outcome code for this side ("win", "resigned", ...).
	Result string `json:"result"`
}

// Record is a game as fetched from a source. It is never modified after
// the source returns it.
type Record struct {
	Platform  Platform  `json:"platform"`
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	White     Player    `json:"white"`
	Black     Player    `json:"black"`
	PGN       string    `json:"pgn"`
	EndTime   time.Time `json:"endTime"`
	TimeClass TimeClass `json:"timeClass"`
}

// Opening is a resolved catalog entry.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Known reports whether the opening was resolved.
func (o Opening) Known() bool { return o.Name != "" }

// String returns the opening name or "unknown".
func (o Opening) String() string {
	if !o.Known() {
		return "unknown"
	}
	return o.Name
}

// Game is a normalized record plus everything the pipeline attaches to it.
type Game struct {
	Record

	// Moves are half-moves in SAN.
	Moves []string `json:"moves"`
	// MoveText is the cleaned movetext ("1. e4 e5 2. Nf3") used for opening lookups.
	MoveText string `json:"moveText"`

	// Clock readings in seconds, in ply order for each side.
	WhiteClock []float64 `json:"whiteClock,omitempty"`
	BlackClock []float64 `json:"blackClock,omitempty"`

	Opening      Opening `json:"opening"`
	SubjectWhite bool    `json:"subjectWhite"`
	// ResultCode is the platform outcome code for the subject's side.
	ResultCode string  `json:"resultCode"`
	Outcome    Outcome `json:"outcome"`

	// Fields below are set once scoring completes.

	// Depth is the search depth the scores were computed at.
	Depth int `json:"depth"`
	// Scores holds one White-perspective evaluation per half-move.
	Scores []int `json:"scores,omitempty"`
	// MainLines holds the engine's principal variation (UCI) per half-move.
	MainLines [][]string `json:"mainLines,omitempty"`

	ScoreOutOfOpening int      `json:"scoreOutOfOpening"`
	Events            EventSet `json:"events"`
	Final             Final    `json:"final"`
	WinningFinal      Final    `json:"winningFinal"`
}

// Subject returns the player the analysis is about.
func (g *Game) Subject() Player {
	if g.SubjectWhite {
		return g.White
	}
	return g.Black
}

// Opponent returns the subject's opponent.
func (g *Game) Opponent() Player {
	if g.SubjectWhite {
		return g.Black
	}
	return g.White
}

// SubjectClock returns the subject's clock readings.
func (g *Game) SubjectClock() []float64 {
	if g.SubjectWhite {
		return g.WhiteClock
	}
	return g.BlackClock
}

// OpponentClock returns the opponent's clock readings.
func (g *Game) OpponentClock() []float64 {
	if g.SubjectWhite {
		return g.BlackClock
	}
	return g.WhiteClock
}

// Relative converts a White-perspective score into the subject's perspective.
func (g *Game) Relative(score int) int {
	if g.SubjectWhite {
		return score
	}
	return -score
}

// Scored reports whether the game carries a complete score series.
func (g *Game) Scored() bool {
	return len(g.Moves) > 0 && len(g.Scores) == len(g.Moves)
}
