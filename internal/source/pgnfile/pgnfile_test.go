package pgnfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/source"
)

const collection = `[Event "Live Chess"]
[Site "Chess.com"]
[White "Alice"]
[Black "bob"]
[Result "1-0"]
[WhiteElo "1500"]
[BlackElo "1450"]
[TimeControl "180+2"]
[EndDate "2024.03.05"]
[EndTime "10:11:12"]
[Termination "Alice won by resignation"]
[Link "https://www.chess.com/game/live/1"]

1. e4 e5 2. Nf3 Nc6 1-0

[Event "Casual"]
[White "carol"]
[Black "alice"]
[Result "1/2-1/2"]
[TimeControl "60"]
[UTCDate "2024.04.01"]
[UTCTime "00:00:01"]

1. d4 d5 1/2-1/2

[Event "Club"]
[White "alice"]
[Black "dave"]
[Result "0-1"]
[TimeControl "180+2"]
[Date "2024.02.10"]
[Termination "dave won on time"]

1. f3 e5 2. g4 Qh4# 0-1
`

func TestSplit(t *testing.T) {
	games, err := Split(strings.NewReader("junk before\n" + collection))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("Split() returned %d games, want 3", len(games))
	}
	if !strings.HasPrefix(games[1], `[Event "Casual"]`) {
		t.Errorf("games[1] = %q", games[1])
	}
}

func TestRecord(t *testing.T) {
	games, _ := Split(strings.NewReader(collection))

	r := Record(games[0])
	if r.URL != "https://www.chess.com/game/live/1" || r.TimeClass != game.Blitz {
		t.Errorf("Record() url/tc = %q/%q", r.URL, r.TimeClass)
	}
	if r.White.Result != "win" || r.Black.Result != "resigned" || r.White.Rating != 1500 {
		t.Errorf("Record() players = %+v / %+v", r.White, r.Black)
	}
	if want := time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC); !r.EndTime.Equal(want) {
		t.Errorf("Record().EndTime = %v, want %v", r.EndTime, want)
	}

	d := Record(games[1])
	if d.White.Result != "agreed" || d.TimeClass != game.Bullet || !strings.HasPrefix(d.URL, "pgn:") {
		t.Errorf("Record(draw) = %+v", d)
	}
	if l := Record(games[2]); l.White.Result != "timeout" || l.Black.Result != "win" {
		t.Errorf("Record(loss) players = %+v / %+v", l.White, l.Black)
	}
}

func TestTimeClassOf(t *testing.T) {
	tests := map[string]game.TimeClass{
		"60":     game.Bullet,
		"120+2":  game.Blitz,
		"180+2":  game.Blitz,
		"600":    game.Rapid,
		"-":      game.Rapid,
		"900+10": game.Rapid,
	}
	for tc, want := range tests {
		if got := TimeClassOf(tc); got != want {
			t.Errorf("TimeClassOf(%q) = %q, want %q", tc, got, want)
		}
	}
}

func TestSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := os.WriteFile(path, []byte(collection), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(path)
	ctx := context.Background()

	name, err := s.CanonicalUsername(ctx, "ALICE")
	if err != nil || name != "Alice" {
		t.Fatalf("CanonicalUsername() = %q, %v", name, err)
	}
	if _, err := s.CanonicalUsername(ctx, "erin"); !errors.Is(err, source.ErrUserNotFound) {
		t.Errorf("CanonicalUsername(erin) error = %v", err)
	}

	recs, err := s.Fetch(ctx, source.Query{Username: "alice", TimeClass: game.Blitz, Until: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(recs) != 2 || recs[0].Black.Username != "dave" {
		t.Errorf("Fetch() = %+v", recs)
	}

	recs, _ = s.Fetch(ctx, source.Query{Username: "alice", TimeClass: game.Blitz, MaxGames: 1})
	if len(recs) != 1 || recs[0].White.Username != "Alice" {
		t.Errorf("Fetch(max 1) = %+v", recs)
	}

	if _, err := New(filepath.Join(t.TempDir(), "missing.pgn")).Fetch(ctx, source.Query{}); !errors.Is(err, source.ErrFetch) {
		t.Errorf("Fetch(missing) error = %v", err)
	}
}

func TestSource_Compressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write([]byte(collection)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		"games.pgn.zst": enc.EncodeAll([]byte(collection), nil),
		"games.pgn.gz":  gz.Bytes(),
	}
	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatal(err)
			}
			name, err := New(path).CanonicalUsername(context.Background(), "alice")
			if err != nil || name != "Alice" {
				t.Errorf("CanonicalUsername() = %q, %v", name, err)
			}
		})
	}
}
