// Package config holds the analysis settings and their layered loading:
// defaults, then an optional YAML file, then INSIGHT_ environment variables.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/discochess/insight/internal/game"
)

// Depth bounds accepted for the engine search.
const (
	MinDepth = 1
	MaxDepth = 18
)

// Platforms and cache backends accepted by Validate.
var (
	Platforms = []string{"chesscom", "lichess", "pgn"}
	Backends  = []string{"memory", "disk", "s3", "gcs"}
	Codecs    = []string{"zstd", "gzip", "none"}
)

// Config is the full set of analysis settings.
type Config struct {
	Username  string `koanf:"username"`
	Platform  string `koanf:"platform"`
	TimeClass string `koanf:"time_class"`
	// Start is the most recent month to fetch, "YYYY-MM". Empty means the
	// current month.
	Start      string `koanf:"start"`
	MonthsBack int    `koanf:"months_back"`
	MaxGames   int    `koanf:"max_games"`
	// PGNPath is read when Platform is "pgn".
	PGNPath string `koanf:"pgn_path"`

	Depth         int           `koanf:"depth"`
	Workers       int           `koanf:"workers"`
	EnginePath    string        `koanf:"engine_path"`
	EngineHash    int           `koanf:"engine_hash"`
	EngineThreads int           `koanf:"engine_threads"`
	StallTimeout  time.Duration `koanf:"stall_timeout"`
	Retries       int           `koanf:"retries"`

	Threshold int `koanf:"threshold"`
	// Guard skips swings landing beyond ±Guard. Zero disables it.
	Guard int `koanf:"guard"`

	CacheBackend  string `koanf:"cache_backend"`
	CacheDir      string `koanf:"cache_dir"`
	CacheBucket   string `koanf:"cache_bucket"`
	CachePrefix   string `koanf:"cache_prefix"`
	CacheRegion   string `koanf:"cache_region"`
	CacheEndpoint string `koanf:"cache_endpoint"`
	Codec         string `koanf:"codec"`

	EvalCacheSize int  `koanf:"eval_cache_size"`
	MainLines     bool `koanf:"main_lines"`

	LogLevel string `koanf:"log_level"`
}

// New returns a Config holding the defaults.
func New() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return &Config{
		Platform:      "chesscom",
		TimeClass:     string(game.Blitz),
		MonthsBack:    24,
		MaxGames:      100,
		Depth:         12,
		Workers:       workers,
		EnginePath:    "stockfish",
		EngineHash:    64,
		EngineThreads: 1,
		StallTimeout:  30 * time.Second,
		Retries:       1,
		Threshold:     360,
		CacheBackend:  "disk",
		CacheDir:      ".insight-cache",
		Codec:         "zstd",
		EvalCacheSize: 200_000,
		MainLines:     true,
		LogLevel:      "info",
	}
}

// Validate checks every field with a closed domain.
func (c *Config) Validate() error {
	if c.Depth < MinDepth || c.Depth > MaxDepth {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidDepth, c.Depth, MinDepth, MaxDepth)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if !oneOf(c.Platform, Platforms) {
		return fmt.Errorf("%w: %q", ErrInvalidPlatform, c.Platform)
	}
	if c.Platform == "pgn" && c.PGNPath == "" {
		return fmt.Errorf("%w: pgn platform needs pgn_path", ErrInvalidPlatform)
	}
	if _, ok := game.ParseTimeClass(c.TimeClass); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTimeClass, c.TimeClass)
	}
	if _, err := c.StartMonth(time.Time{}); err != nil {
		return err
	}
	if !oneOf(c.CacheBackend, Backends) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.CacheBackend)
	}
	if (c.CacheBackend == "s3" || c.CacheBackend == "gcs") && c.CacheBucket == "" {
		return fmt.Errorf("%w: %s backend needs cache_bucket", ErrInvalidBackend, c.CacheBackend)
	}
	if !oneOf(c.Codec, Codecs) {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Codec)
	}
	if c.MaxGames < 0 || c.MonthsBack < 0 || c.Retries < 0 || c.Guard < 0 || c.Threshold <= 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidValue)
	}
	return nil
}

// StartMonth parses Start. An empty Start yields now's month.
func (c *Config) StartMonth(now time.Time) (time.Time, error) {
	if c.Start == "" {
		return now, nil
	}
	t, err := time.Parse("2006-01", c.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStart, c.Start)
	}
	return t, nil
}

// Class returns the validated time class.
func (c *Config) Class() game.TimeClass {
	tc, _ := game.ParseTimeClass(c.TimeClass)
	return tc
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
