package uciengine

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	args             []string
	env              []string
	hashMB           int
	threads          int
	handshakeTimeout time.Duration
	quitGrace        time.Duration
	logger           *zap.Logger
}

func defaultOptions() options {
	return options{
		hashMB:           32,
		handshakeTimeout: 10 * time.Second,
		quitGrace:        2 * time.Second,
		logger:           zap.NewNop(),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithArgs sets command-line arguments for the engine binary.
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = args }
}

// WithEnv appends KEY=value pairs to the engine's environment.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithHash sets the transposition table size in MB. Zero leaves the
// engine default.
func WithHash(mb int) Option {
	return func(o *options) { o.hashMB = mb }
}

// WithThreads sets the engine's search threads. Zero leaves the engine default.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithHandshakeTimeout bounds waits for uciok, readyok and bestmove after stop.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
