package insight

import (
	"fmt"

	"github.com/discochess/insight/internal/cache"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/report"
)

// Stage names the pipeline step a game failed in.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageEvaluate  Stage = "evaluate"
	StageClassify  Stage = "classify"
)

// GameError records a game excluded from a run.
type GameError struct {
	URL   string
	Stage Stage
	Err   error
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *GameError) Unwrap() error { return e.Err }

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Username string
	Depth    int

	// Games holds every game of the run, cached and fresh, oldest first.
	Games    []game.Game
	Cached   int
	Analyzed int
	Failed   []*GameError

	// Buckets summarizes the cache buckets written by the run.
	Buckets map[string]cache.Info
	// Warnings holds non-fatal conditions such as ErrNoGamesFound or a
	// failed cache write.
	Warnings []error

	Report report.Report
}

func (r *Result) fail(url string, stage Stage, err error) {
	r.Failed = append(r.Failed, &GameError{URL: url, Stage: stage, Err: err})
}
