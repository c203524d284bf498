package fakeengine

import (
	"context"
	"testing"
	"time"
)

func TestMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 0},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", 500},
		{"4k3/8/8/8/8/8/8/R3K3 b - - 0 1", -500},
	}
	for _, tt := range tests {
		got, err := Material(tt.fen, 4)
		if err != nil {
			t.Fatalf("Material() error = %v", err)
		}
		if got.Score != tt.want {
			t.Errorf("Material(%q) = %d, want %d", tt.fen, got.Score, tt.want)
		}
	}
}

func TestEngine_DropsStaleGeneration(t *testing.T) {
	e := New(WithDelay(10 * time.Millisecond))
	defer e.Close()
	ctx := context.Background()

	if _, err := e.NewGame(ctx); err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		_ = e.Submit(ctx, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1", 1)
	}
	gen, _ := e.NewGame(ctx)
	_ = e.Submit(ctx, "4k3/8/8/8/8/8/8/R3K3 b - - 0 1", 1)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-e.Events():
			if ev.Generation == gen {
				if ev.Seq != 0 || ev.Eval.Score != -500 {
					t.Errorf("event = %+v", ev)
				}
				return
			}
		case <-deadline:
			t.Fatal("no event for the current generation")
		}
	}
}
