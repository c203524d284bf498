package opening

import (
	"errors"
	"strings"
	"testing"
)

func TestDefault_Lookup(t *testing.T) {
	b := Default()
	if b.eco != Default().eco {
		t.Fatal("Default() rebuilt the ECO catalog")
	}

	tests := []struct {
		moves string
		eco   string
		name  string
	}{
		{"e4", "B00", "King's Pawn"},
		{"e4 c5 Nf3 d6 d4 cxd4 Nxd4 Nf6 Nc3 a6 Be2", "B92", "Sicilian Defense: Najdorf Variation, Opocensky Variation"},
		{"e4 e5 Nf3 Nc6 Bc4 Nf6 d3", "C55", "Italian Game: Two Knights Defense, Modern Bishop's Opening"},
		{"d4 d5 c4 e6 Nc3", "D31", "Queen's Gambit Declined: Queen's Knight Variation"},
		{"e4 e5 Qh5+", "C20", "King's Pawn Game: Wayward Queen Attack"},
		{"e4 e5 Qh5!?", "C20", "King's Pawn Game: Wayward Queen Attack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Lookup(strings.Fields(tt.moves))
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.ECO != tt.eco || got.Name != tt.name {
				t.Errorf("Lookup() = %+v, want %s %s", got, tt.eco, tt.name)
			}
		})
	}
}

func TestDefault_DeepLines(t *testing.T) {
	b := Default()

	tests := []struct {
		name  string
		moves string
		eco   string
		want  string
	}{
		{
			name:  "english attack",
			moves: "e4 c5 Nf3 d6 d4 cxd4 Nxd4 Nf6 Nc3 a6 Be3",
			eco:   "B90",
			want:  "Sicilian Defense: Najdorf Variation, English Attack",
		},
		{
			name:  "poisoned pawn past the book",
			moves: "e4 c5 Nf3 d6 d4 cxd4 Nxd4 Nf6 Nc3 a6 Bg5 e6 f4 Qb6 Qd2 Qxb2 Rb1 Qa3 f5 Nc6",
			eco:   "B97",
			want:  "Sicilian Defense: Najdorf Variation, Poisoned Pawn Accepted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Lookup(strings.Fields(tt.moves))
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.ECO != tt.eco {
				t.Errorf("Lookup() ECO = %s, want %s", got.ECO, tt.eco)
			}
			if Family(got.Name) != "Sicilian Defense" {
				t.Errorf("Lookup() family = %q", Family(got.Name))
			}
			if got.Name != tt.want {
				t.Errorf("Lookup() name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestDefault_StopsAtIllegalMove(t *testing.T) {
	got, err := Default().Lookup([]string{"e4", "e5", "Ke3", "Nc6"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.ECO != "C20" {
		t.Errorf("Lookup() = %+v, want the e4 e5 entry", got)
	}
}

func TestLookup_Unresolved(t *testing.T) {
	b := Default()
	_, err := b.Lookup([]string{"Ke2"})
	if !errors.Is(err, ErrUnresolved) {
		t.Errorf("Lookup() error = %v, want ErrUnresolved", err)
	}
	_, err = b.Lookup(nil)
	if !errors.Is(err, ErrUnresolved) {
		t.Errorf("Lookup(nil) error = %v, want ErrUnresolved", err)
	}
	_, err = New(nil).Lookup([]string{"e4"})
	if !errors.Is(err, ErrUnresolved) {
		t.Errorf("empty book Lookup() error = %v, want ErrUnresolved", err)
	}
}

func TestNew_LongestFirst(t *testing.T) {
	b := New([]Entry{
		{ECO: "X1", Name: "short", Moves: []string{"e4"}},
		{ECO: "X2", Name: "long", Moves: []string{"e4", "e5"}},
		{ECO: "X3", Name: "long twin", Moves: []string{"e4", "e5"}},
	})
	got, err := b.Lookup([]string{"e4", "e5", "Nf3"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Name != "long" {
		t.Errorf("Lookup() = %q, want %q", got.Name, "long")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(strings.NewReader("eco\tname\tpgn\nA00\tbroken\n")); err == nil {
		t.Error("Load() should reject a row with two columns")
	}
}

func TestSANs(t *testing.T) {
	got := SANs("1. e4 e5 2. Nf3 Nc6 3...a6 10.O-O")
	want := []string{"e4", "e5", "Nf3", "Nc6", "a6", "O-O"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("SANs() = %v, want %v", got, want)
	}
}

func TestFamily(t *testing.T) {
	if got := Family("Sicilian Defense: Najdorf Variation"); got != "Sicilian Defense" {
		t.Errorf("Family() = %q", got)
	}
	if got := Family("Ruy Lopez"); got != "Ruy Lopez" {
		t.Errorf("Family() = %q", got)
	}
}
