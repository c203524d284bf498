package uciengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/discochess/insight/internal/engine"
)

const hangFEN = "8/8/8/8/8/8/8/K6k w - - 0 1"

// TestHelperProcess is not a real test. It is re-executed by the tests
// below and speaks a minimal UCI dialect on stdin/stdout.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("INSIGHT_FAKE_UCI") != "1" {
		return
	}
	fakeUCI()
	os.Exit(0)
}

func fakeUCI() {
	in := bufio.NewScanner(os.Stdin)
	var fen string
	for in.Scan() {
		cmd := strings.TrimSpace(in.Text())
		switch {
		case cmd == "uci":
			fmt.Println("id name fake")
			fmt.Println("uciok")
		case cmd == "isready":
			fmt.Println("readyok")
		case strings.HasPrefix(cmd, "position fen "):
			fen = strings.TrimPrefix(cmd, "position fen ")
		case strings.HasPrefix(cmd, "go depth "):
			var depth int
			fmt.Sscanf(cmd, "go depth %d", &depth)
			if fen == hangFEN {
				continue
			}
			fmt.Printf("info depth %d seldepth %d score cp 999 pv a2a3\n", depth-1, depth)
			fmt.Printf("info depth %d seldepth %d score cp %d upperbound pv a2a4\n", depth, depth, -5)
			fmt.Printf("info depth %d seldepth %d score cp %d pv e2e4 e7e5\n", depth, depth, len(fen))
			fmt.Println("bestmove e2e4 ponder e7e5")
		case cmd == "stop":
			fmt.Println("bestmove (none)")
		case cmd == "quit":
			return
		}
	}
}

func startFake(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := Start(ctx, os.Args[0],
		WithArgs("-test.run=TestHelperProcess"),
		WithEnv("INSIGHT_FAKE_UCI=1"),
		WithHandshakeTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func next(t *testing.T, e *Engine) engine.Event {
	t.Helper()
	select {
	case ev, ok := <-e.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return engine.Event{}
}

func TestEngine_Evaluate(t *testing.T) {
	e := startFake(t)
	ctx := context.Background()

	gen, err := e.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}

	fens := []string{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
	}
	for _, f := range fens {
		if err := e.Submit(ctx, f, 10); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	for i, f := range fens {
		ev := next(t, e)
		if ev.Err != nil {
			t.Fatalf("event %d error = %v", i, ev.Err)
		}
		if ev.Generation != gen || ev.Seq != i {
			t.Errorf("event %d = gen %d seq %d, want gen %d seq %d", i, ev.Generation, ev.Seq, gen, i)
		}
		if ev.Eval.Score != len(f) || ev.Eval.Depth != 10 {
			t.Errorf("event %d eval = %+v, want score %d at depth 10", i, ev.Eval, len(f))
		}
		if len(ev.Eval.PV) != 2 || ev.Eval.PV[0] != "e2e4" {
			t.Errorf("event %d pv = %v", i, ev.Eval.PV)
		}
	}
}

func TestEngine_NewGameInterruptsSearch(t *testing.T) {
	e := startFake(t)
	ctx := context.Background()

	if _, err := e.NewGame(ctx); err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	if err := e.Submit(ctx, hangFEN, 8); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	// Give the loop time to start the hanging search.
	time.Sleep(100 * time.Millisecond)

	gen, err := e.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame() after hang error = %v", err)
	}

	start := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if err := e.Submit(ctx, start, 8); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	ev := next(t, e)
	if ev.Generation != gen || ev.Seq != 0 || ev.Err != nil {
		t.Errorf("event = %+v, want first event of generation %d", ev, gen)
	}
}

func TestEngine_BadFEN(t *testing.T) {
	e := startFake(t)
	ctx := context.Background()

	gen, err := e.NewGame(ctx)
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	good := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	for _, f := range []string{"not a fen", good} {
		if err := e.Submit(ctx, f, 6); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	if ev := next(t, e); ev.Err == nil || ev.Seq != 0 {
		t.Errorf("event = %+v, want an error for seq 0", ev)
	}
	ev := next(t, e)
	if ev.Err != nil || ev.Generation != gen || ev.Seq != 1 {
		t.Fatalf("event = %+v, want seq 1 of generation %d", ev, gen)
	}
	if ev.Eval.Score != len(good) {
		t.Errorf("Score = %d, want %d", ev.Eval.Score, len(good))
	}
}

func TestEngine_Closed(t *testing.T) {
	e := startFake(t)
	e.Close()

	err := e.Submit(context.Background(), "8/8/8/8/8/8/8/K6k w - - 0 1", 1)
	if !errors.Is(err, engine.ErrClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
	}
}

func TestStart_BadPath(t *testing.T) {
	if _, err := Start(context.Background(), ""); err == nil {
		t.Error("Start(\"\") should fail")
	}
	if _, err := Start(context.Background(), "/nonexistent/stockfish"); err == nil {
		t.Error("Start() with missing binary should fail")
	}
}
