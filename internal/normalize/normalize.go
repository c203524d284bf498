// Package normalize turns a fetched record into a game the pipeline can
// score: clean half-moves, per-side clocks, the subject's side, its outcome
// and the opening.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/opening"
)

var (
	// ErrNoMoves is returned for records without any half-move.
	ErrNoMoves = errors.New("normalize: no moves")
	// ErrUnknownResult is returned when the subject's result code is not in the outcome table.
	ErrUnknownResult = errors.New("normalize: unknown result code")
	// ErrMalformed is returned when the movetext cannot be decoded or holds
	// an illegal move.
	ErrMalformed = errors.New("normalize: malformed movetext")
)

// Normalizer converts records for one subject.
type Normalizer struct {
	book   *opening.Book
	logger *zap.Logger
}

// New returns a normalizer resolving openings against book. A nil book
// uses the built-in catalog.
func New(book *opening.Book, logger *zap.Logger) *Normalizer {
	if book == nil {
		book = opening.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{book: book, logger: logger}
}

// Normalize converts rec for subject, the canonical username. An
// unresolved opening is logged and leaves the opening unset.
func (n *Normalizer) Normalize(rec game.Record, subject string) (game.Game, error) {
	mt, err := ParseMovetext(rec.PGN)
	if err != nil {
		return game.Game{}, fmt.Errorf("%s: %w", rec.URL, err)
	}
	if len(mt.Moves) == 0 {
		return game.Game{}, fmt.Errorf("%w: %s", ErrNoMoves, rec.URL)
	}

	g := game.Game{
		Record:       rec,
		Moves:        mt.Moves,
		MoveText:     mt.Text(),
		WhiteClock:   mt.WhiteClock,
		BlackClock:   mt.BlackClock,
		SubjectWhite: rec.White.Username == subject,
	}

	g.ResultCode = g.Subject().Result
	outcome, ok := game.OutcomeFor(g.ResultCode)
	if !ok {
		return game.Game{}, fmt.Errorf("%w: %q in %s", ErrUnknownResult, g.ResultCode, rec.URL)
	}
	g.Outcome = outcome

	o, err := n.book.Lookup(g.Moves)
	if err != nil {
		n.logger.Warn("opening unresolved",
			zap.String("url", rec.URL),
			zap.String("moves", firstMoves(g.MoveText)),
		)
	}
	g.Opening = o
	return g, nil
}

func firstMoves(text string) string {
	const limit = 40
	if len(text) <= limit {
		return text
	}
	return strings.TrimSpace(text[:limit]) + "..."
}
