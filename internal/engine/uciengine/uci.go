// Package uciengine runs an external UCI engine process (such as
// Stockfish) as an engine.Engine.
//
// Commands are encoded with notnil/chess/uci. The process and its output
// are driven here so that every wait is bounded by a context or timeout
// and a search can be stopped when a new game starts.
package uciengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"go.uber.org/zap"

	"github.com/discochess/insight/internal/engine"
)

// Compile-time check that Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// ErrExited is reported when the engine process stops writing output. It
// wraps engine.ErrClosed.
var ErrExited = fmt.Errorf("uciengine: process exited: %w", engine.ErrClosed)

type job struct {
	gen   uint64
	seq   int
	fen   string
	depth int
}

// Engine is a UCI process evaluating one position at a time.
type Engine struct {
	opts options

	cmd *exec.Cmd
	in  io.WriteCloser

	lines  chan string
	events chan engine.Event
	ctrl   chan chan error
	wake   chan struct{}

	mu    sync.Mutex
	gen   uint64
	seq   int
	queue []job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Start launches the engine at path and completes the UCI handshake.
func Start(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	if path == "" {
		return nil, errors.New("uciengine: empty engine path")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.Command(path, o.args...)
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}

	e := &Engine{
		opts:   o,
		cmd:    cmd,
		in:     in,
		lines:  make(chan string, 256),
		events: make(chan engine.Event, 1024),
		ctrl:   make(chan chan error),
		wake:   make(chan struct{}, 1),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.wg.Add(1)
	go e.readLoop(out)

	if err := e.handshake(ctx); err != nil {
		e.Close()
		return nil, err
	}

	e.wg.Add(1)
	go e.loop()

	o.logger.Debug("engine started",
		zap.String("path", path),
		zap.Int("pid", cmd.Process.Pid),
	)
	return e, nil
}

// Factory returns an engine.Factory starting engines at path.
func Factory(path string, opts ...Option) engine.Factory {
	return func(ctx context.Context) (engine.Engine, error) {
		return Start(ctx, path, opts...)
	}
}

// NewGame interrupts any running search, drops queued positions and sends
// ucinewgame.
func (e *Engine) NewGame(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	e.gen++
	e.seq = 0
	e.queue = nil
	gen := e.gen
	e.mu.Unlock()

	reply := make(chan error, 1)
	select {
	case e.ctrl <- reply:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-e.ctx.Done():
		return 0, engine.ErrClosed
	}
	select {
	case err := <-reply:
		if err != nil {
			return 0, err
		}
		return gen, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Submit queues fen for a search to depth.
func (e *Engine) Submit(ctx context.Context, fen string, depth int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return engine.ErrClosed
	default:
	}

	e.mu.Lock()
	e.queue = append(e.queue, job{gen: e.gen, seq: e.seq, fen: fen, depth: depth})
	e.seq++
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// Events streams evaluation results.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// Close sends quit and kills the process if it does not exit in time.
func (e *Engine) Close() error {
	e.once.Do(func() {
		_ = e.send(uci.CmdQuit)
		e.cancel()
		_ = e.in.Close()

		done := make(chan struct{})
		go func() {
			_ = e.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(e.opts.quitGrace):
			_ = e.cmd.Process.Kill()
			<-done
		}
		e.wg.Wait()
		e.opts.logger.Debug("engine stopped", zap.Int("pid", e.cmd.Process.Pid))
	})
	return nil
}

func (e *Engine) handshake(ctx context.Context) error {
	if err := e.send(uci.CmdUCI); err != nil {
		return err
	}
	if err := e.waitFor(ctx, "uciok", e.opts.handshakeTimeout); err != nil {
		return err
	}
	if e.opts.hashMB > 0 {
		if err := e.send(uci.CmdSetOption{Name: "Hash", Value: strconv.Itoa(e.opts.hashMB)}); err != nil {
			return err
		}
	}
	if e.opts.threads > 0 {
		if err := e.send(uci.CmdSetOption{Name: "Threads", Value: strconv.Itoa(e.opts.threads)}); err != nil {
			return err
		}
	}
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send(uci.CmdIsReady); err != nil {
		return err
	}
	return e.waitFor(ctx, "readyok", e.opts.handshakeTimeout)
}

func (e *Engine) reset() error {
	if err := e.send(uci.CmdUCINewGame); err != nil {
		return err
	}
	return e.ready(e.ctx)
}

func (e *Engine) loop() {
	defer e.wg.Done()
	defer close(e.events)
	defer e.cancel()

	for {
		select {
		case <-e.ctx.Done():
			return
		case reply := <-e.ctrl:
			reply <- e.reset()
		case <-e.wake:
			for {
				j, ok := e.next()
				if !ok {
					break
				}
				if err := e.search(j); err != nil {
					return
				}
			}
		}
	}
}

func (e *Engine) next() (job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		j := e.queue[0]
		e.queue = e.queue[1:]
		if j.gen == e.gen {
			return j, true
		}
	}
	return job{}, false
}

// search runs one position. A non-nil error means the loop must stop.
func (e *Engine) search(j job) error {
	var pos chess.Position
	if err := pos.UnmarshalText([]byte(j.fen)); err != nil {
		e.emit(engine.Event{Generation: j.gen, Seq: j.seq, Err: fmt.Errorf("uciengine: %w", err)})
		return nil
	}
	if err := e.send(uci.CmdPosition{Position: &pos}); err != nil {
		e.emit(engine.Event{Generation: j.gen, Seq: j.seq, Err: err})
		return nil
	}
	if err := e.send(uci.CmdGo{Depth: j.depth}); err != nil {
		e.emit(engine.Event{Generation: j.gen, Seq: j.seq, Err: err})
		return nil
	}

	var (
		best  engine.Evaluation
		found bool
	)
	for {
		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		case reply := <-e.ctrl:
			_ = e.send(uci.CmdStop)
			if err := e.waitFor(e.ctx, "bestmove", e.opts.handshakeTimeout); err != nil {
				reply <- err
				return nil
			}
			reply <- e.reset()
			return nil
		case line, ok := <-e.lines:
			if !ok {
				e.emit(engine.Event{Generation: j.gen, Seq: j.seq, Err: ErrExited})
				return ErrExited
			}
			if strings.HasPrefix(line, "bestmove") {
				ev := engine.Event{Generation: j.gen, Seq: j.seq, Eval: best}
				if !found {
					ev.Err = fmt.Errorf("%w: %s", engine.ErrNoEvaluation, j.fen)
				}
				e.emit(ev)
				return nil
			}
			if ev, ok := engine.ParseInfo(line, j.depth); ok {
				best, found = ev, true
			}
		}
	}
}

func (e *Engine) emit(ev engine.Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}

// send writes one command line. Responses are read by readLoop, so the
// commands' own ProcessResponse hooks are never used.
func (e *Engine) send(cmd uci.Cmd) error {
	line := cmd.String()
	if _, err := io.WriteString(e.in, line+"\n"); err != nil {
		return fmt.Errorf("writing %q: %w", line, err)
	}
	return nil
}

func (e *Engine) waitFor(ctx context.Context, prefix string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return ErrExited
			}
			if strings.HasPrefix(line, prefix) {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("uciengine: timeout waiting for %s", prefix)
		case <-ctx.Done():
			return ctx.Err()
		case <-e.ctx.Done():
			return engine.ErrClosed
		}
	}
}

func (e *Engine) readLoop(out io.Reader) {
	defer e.wg.Done()
	defer close(e.lines)

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case e.lines <- line:
		case <-e.ctx.Done():
			return
		}
	}
}
