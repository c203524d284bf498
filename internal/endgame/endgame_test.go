package endgame

import (
	"testing"

	"github.com/discochess/insight/internal/fen"
	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/replay"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		subject  fen.Pieces
		opponent fen.Pieces
		want     game.Final
	}{
		{"bare kings", fen.Pieces{}, fen.Pieces{}, game.EvenPawnFinal},
		{"king and pawn", fen.Pieces{Pawns: 2}, fen.Pieces{}, game.KingAndPawnVsKing},
		{"pawn down", fen.Pieces{}, fen.Pieces{Pawns: 1}, game.NoFinal},
		{"even pawns", fen.Pieces{Pawns: 3}, fen.Pieces{Pawns: 3}, game.EvenPawnFinal},
		{"rooks", fen.Pieces{Rooks: 1, Pawns: 2}, fen.Pieces{Rooks: 1, Pawns: 2}, game.RookFinal},
		{"rooks uneven pawns", fen.Pieces{Rooks: 1, Pawns: 3}, fen.Pieces{Rooks: 1, Pawns: 2}, game.NoFinal},
		{"queens", fen.Pieces{Queens: 1, Pawns: 1}, fen.Pieces{Queens: 1, Pawns: 1}, game.QueenFinal},
		{"bishops", fen.Pieces{Bishops: 1}, fen.Pieces{Bishops: 1}, game.BishopFinal},
		{"knights", fen.Pieces{Knights: 1, Pawns: 4}, fen.Pieces{Knights: 1, Pawns: 4}, game.KnightFinal},
		{"bishop and knight", fen.Pieces{Bishops: 1, Knights: 1}, fen.Pieces{Bishops: 1, Knights: 1}, game.BishopKnightFinal},
		{"minor imbalance", fen.Pieces{Bishops: 1}, fen.Pieces{Knights: 1}, game.NoFinal},
		{"queen versus king", fen.Pieces{Queens: 1}, fen.Pieces{}, game.KingAndQueenVsKing},
		{"rook versus king", fen.Pieces{Rooks: 2, Pawns: 1}, fen.Pieces{Pawns: 1}, game.KingAndRookVsKing},
		{"rook versus minor", fen.Pieces{Rooks: 1}, fen.Pieces{Bishops: 1}, game.NoFinal},
		{"opponent queen", fen.Pieces{}, fen.Pieces{Queens: 1}, game.NoFinal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.subject, tt.opponent); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name        string
		signatures  []game.Final
		supports    SupportFunc
		wantFinal   game.Final
		wantWinning game.Final
		wantPly     int
	}{
		{
			name:        "winning signature held for two positions",
			signatures:  []game.Final{game.NoFinal, game.NoFinal, game.KingAndRookVsKing, game.KingAndRookVsKing},
			wantFinal:   game.KingAndRookVsKing,
			wantWinning: game.KingAndRookVsKing,
			wantPly:     2,
		},
		{
			name:        "winning signature reached on the last move only",
			signatures:  []game.Final{game.NoFinal, game.NoFinal, game.NoFinal, game.KingAndRookVsKing},
			wantFinal:   game.NoFinal,
			wantWinning: game.NoFinal,
		},
		{
			name:        "non-winning stable signature",
			signatures:  []game.Final{game.NoFinal, game.RookFinal, game.RookFinal, game.EvenPawnFinal},
			wantFinal:   game.RookFinal,
			wantWinning: game.NoFinal,
			wantPly:     1,
		},
		{
			name:        "latest stable signature wins",
			signatures:  []game.Final{game.RookFinal, game.RookFinal, game.KingAndPawnVsKing, game.KingAndPawnVsKing, game.KingAndPawnVsKing},
			wantFinal:   game.KingAndPawnVsKing,
			wantWinning: game.KingAndPawnVsKing,
			wantPly:     3,
		},
		{
			name:        "evaluation disagrees",
			signatures:  []game.Final{game.NoFinal, game.KingAndQueenVsKing, game.KingAndQueenVsKing},
			supports:    func(int) bool { return false },
			wantFinal:   game.KingAndQueenVsKing,
			wantWinning: game.NoFinal,
			wantPly:     1,
		},
		{
			name:       "empty",
			signatures: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Walk(tt.signatures, tt.supports)
			if got.Final != tt.wantFinal || got.WinningFinal != tt.wantWinning || got.Ply != tt.wantPly {
				t.Errorf("Walk() = %+v, want final %v winning %v ply %d", got, tt.wantFinal, tt.wantWinning, tt.wantPly)
			}
		})
	}
}

func positions(t *testing.T, fens ...string) []replay.Position {
	t.Helper()
	out := make([]replay.Position, len(fens))
	for i, f := range fens {
		m, err := fen.ParseMaterial(f)
		if err != nil {
			t.Fatalf("ParseMaterial(%q) error = %v", f, err)
		}
		white, err := fen.WhiteToMove(f)
		if err != nil {
			t.Fatalf("WhiteToMove(%q) error = %v", f, err)
		}
		out[i] = replay.Position{FEN: f, WhiteToMove: white, Material: m}
	}
	return out
}

func TestAnalyze(t *testing.T) {
	// White trades its bishop for Black's last piece and keeps a rook.
	ps := positions(t,
		"4k3/8/8/8/8/2n5/8/R1B1K3 w - - 0 1",
		"4k3/8/8/8/8/2B5/8/R3K3 b - - 0 1",
		"8/4k3/8/8/8/2B5/8/R3K3 w - - 1 2",
		"8/4k3/8/8/8/8/8/R3K3 b - - 0 2",
		"8/8/4k3/8/8/8/8/R3K3 w - - 1 3",
	)

	t.Run("white subject", func(t *testing.T) {
		got := Analyze(ps, true, []int{900, 900, 800, 800})
		if got.Final != game.KingAndRookVsKing || got.WinningFinal != game.KingAndRookVsKing {
			t.Errorf("Analyze() = %+v, want rook versus king", got)
		}
	})

	t.Run("black subject", func(t *testing.T) {
		got := Analyze(ps, false, []int{900, 900, 800, 800})
		if got.Final != game.NoFinal || got.WinningFinal != game.NoFinal {
			t.Errorf("Analyze() = %+v, want no final", got)
		}
	})

	t.Run("evaluation against the subject", func(t *testing.T) {
		got := Analyze(ps, true, []int{900, 900, -50, -50})
		if got.Final != game.KingAndRookVsKing || got.WinningFinal != game.NoFinal {
			t.Errorf("Analyze() = %+v, want final without winning final", got)
		}
	})
}
