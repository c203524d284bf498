package quiz

import (
	"strings"
	"testing"

	"github.com/discochess/insight/internal/game"
)

const study = `[Event "Italian"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 *

[Event "Italian"]
[Result "*"]

1. e4 e5 2. Nf3 Nf6 *

[Event "Sicilian"]
[Result "*"]

1. e4 c5 2. Nf3 *
`

func TestLoadChapters(t *testing.T) {
	chapters, err := LoadChapters(strings.NewReader(study))
	if err != nil {
		t.Fatalf("LoadChapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("LoadChapters() returned %d chapters, want 2", len(chapters))
	}
	if chapters[0].Title != "Italian" || len(chapters[0].Lines) != 2 {
		t.Errorf("chapters[0] = %q with %d lines", chapters[0].Title, len(chapters[0].Lines))
	}
	// Start position plus five half-moves.
	if n := len(chapters[0].Lines[0]); n != 6 {
		t.Errorf("len(Lines[0]) = %d, want 6", n)
	}
}

func TestComparePrep(t *testing.T) {
	chapters, err := LoadChapters(strings.NewReader(study))
	if err != nil {
		t.Fatalf("LoadChapters() error = %v", err)
	}

	tests := []struct {
		name         string
		moves        []string
		subjectWhite bool
		want         PrepResult
	}{
		{
			name:         "opponent leaves",
			moves:        []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5"},
			subjectWhite: true,
			want:         PrepResult{InBook: 5, Deviated: true, Ply: 6, Move: "Bc5", Success: true, Chapter: 0, ChapterTitle: "Italian", Line: 0},
		},
		{
			name:         "subject leaves",
			moves:        []string{"e4", "c5", "Nc3"},
			subjectWhite: true,
			want:         PrepResult{InBook: 2, Deviated: true, Ply: 3, Move: "Nc3", Chapter: 1, ChapterTitle: "Sicilian", Line: 0},
		},
		{
			name:         "black subject leaves",
			moves:        []string{"e4", "e5", "Nf3", "d6"},
			subjectWhite: false,
			want:         PrepResult{InBook: 3, Deviated: true, Ply: 4, Move: "d6", Chapter: 0, ChapterTitle: "Italian", Line: 0},
		},
		{
			name:  "fully prepared",
			moves: []string{"e4", "e5", "Nf3", "Nf6"},
			want:  PrepResult{InBook: 4, Chapter: 0, ChapterTitle: "Italian", Line: 1},
		},
		{
			name:         "never in book",
			moves:        []string{"d4"},
			subjectWhite: true,
			want:         PrepResult{Deviated: true, Ply: 1, Move: "d4", Chapter: -1, Line: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &game.Game{Moves: tt.moves, SubjectWhite: tt.subjectWhite}
			got, err := ComparePrep(chapters, g)
			if err != nil {
				t.Fatalf("ComparePrep() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ComparePrep() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
