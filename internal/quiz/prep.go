package quiz

import (
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"

	"github.com/discochess/insight/internal/fen"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/replay"
	"github.com/discochess/insight/internal/source/pgnfile"
)

// Chapter is a named group of prepared lines. Each line is the sequence of
// position keys (fen.Key) it passes through.
type Chapter struct {
	Title string
	Lines [][]string
}

// LoadChapters reads a study export. Games sharing an Event tag form one
// chapter; each game is one line.
func LoadChapters(r io.Reader) ([]Chapter, error) {
	texts, err := pgnfile.Split(r)
	if err != nil {
		return nil, err
	}

	var chapters []Chapter
	index := make(map[string]int)
	for _, text := range texts {
		title := pgnfile.Tags(text)["Event"]
		line, err := lineKeys(text)
		if err != nil {
			return nil, fmt.Errorf("chapter %q: %w", title, err)
		}
		i, ok := index[title]
		if !ok {
			i = len(chapters)
			index[title] = i
			chapters = append(chapters, Chapter{Title: title})
		}
		chapters[i].Lines = append(chapters[i].Lines, line)
	}
	return chapters, nil
}

func lineKeys(text string) ([]string, error) {
	opt, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	positions := chess.NewGame(opt).Positions()
	keys := make([]string, 0, len(positions))
	for _, p := range positions {
		k, err := fen.Key(p.String())
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// PrepResult describes where a game left preparation.
type PrepResult struct {
	GameURL string
	// InBook is the number of half-moves that stayed inside preparation.
	InBook int
	// Deviated is false when every position of the game was prepared.
	Deviated bool
	// Ply is the 1-indexed half-move that left preparation.
	Ply int
	// Move is the SAN of that half-move.
	Move string
	// Success is true when the opponent made the deviating move.
	Success bool
	// Chapter and Line locate the last prepared position reached. Chapter
	// is -1 when none was.
	Chapter      int
	ChapterTitle string
	Line         int
}

type location struct{ chapter, line int }

// ComparePrep replays g and stops at the first position absent from every
// line of chapters.
func ComparePrep(chapters []Chapter, g *game.Game) (PrepResult, error) {
	where := make(map[string]location)
	for c, ch := range chapters {
		for l, line := range ch.Lines {
			for _, k := range line {
				if _, ok := where[k]; !ok {
					where[k] = location{c, l}
				}
			}
		}
	}

	fens, err := replay.FENs(g.Moves)
	if err != nil {
		return PrepResult{}, fmt.Errorf("replaying %s: %w", g.URL, err)
	}

	res := PrepResult{GameURL: g.URL, Chapter: -1, Line: -1}
	for i, f := range fens {
		k, err := fen.Key(f)
		if err != nil {
			return PrepResult{}, err
		}
		loc, ok := where[k]
		if !ok {
			res.Deviated = true
			res.Ply = i + 1
			res.Move = g.Moves[i]
			res.Success = (g.SubjectWhite && i%2 == 1) || (!g.SubjectWhite && i%2 == 0)
			return res, nil
		}
		res.InBook = i + 1
		res.Chapter, res.Line = loc.chapter, loc.line
		res.ChapterTitle = chapters[loc.chapter].Title
	}
	return res, nil
}
