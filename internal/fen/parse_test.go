package fen

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "starting position",
			input: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			want:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
		{
			name:  "same position later in the game",
			input: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 4 3",
			want:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
		{
			name:  "en passant square kept",
			input: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			want:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "too few fields", input: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w", wantErr: true},
		{name: "bad side", input: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", wantErr: true},
		{name: "seven ranks", input: "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", wantErr: true},
		{name: "short rank", input: "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Key(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Key() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMaterial(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Material
		wantErr bool
	}{
		{
			name:  "starting position",
			input: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			want: Material{
				White: Pieces{Pawns: 8, Knights: 2, Bishops: 2, Rooks: 2, Queens: 1},
				Black: Pieces{Pawns: 8, Knights: 2, Bishops: 2, Rooks: 2, Queens: 1},
			},
		},
		{
			name:  "king and rook versus king",
			input: "8/8/8/4k3/8/8/4K3/4R3 w - - 0 1",
			want:  Material{White: Pieces{Rooks: 1}},
		},
		{
			name:  "king and pawn versus king",
			input: "8/8/8/4k3/8/8/3pK3/8 b - - 0 1",
			want:  Material{Black: Pieces{Pawns: 1}},
		},
		{
			name:  "promoted queens",
			input: "QQQQk3/8/8/8/8/8/8/4K3 w - - 0 1",
			want:  Material{White: Pieces{Queens: 4}},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "bad piece", input: "rnbxkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMaterial(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMaterial() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMaterial() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMaterial_Side(t *testing.T) {
	m := Material{White: Pieces{Rooks: 1}, Black: Pieces{Pawns: 2, Knights: 1, Bishops: 1}}
	if got := m.Side(true); got.Rooks != 1 {
		t.Errorf("Side(true) = %+v", got)
	}
	if got := m.Side(false).Minors(); got != 2 {
		t.Errorf("Side(false).Minors() = %d, want 2", got)
	}
}

func TestWhiteToMove(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", true, false},
		{"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false, false},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", false, true},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", false, true},
	}

	for _, tt := range tests {
		got, err := WhiteToMove(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("WhiteToMove(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("WhiteToMove(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func BenchmarkParseMaterial(b *testing.B) {
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	for i := 0; i < b.N; i++ {
		_, _ = ParseMaterial(fen)
	}
}
