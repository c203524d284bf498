package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/insight"
	"github.com/discochess/insight/internal/report"
	"github.com/discochess/insight/internal/schedule"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch, score and report a player's games",
	Long: `Fetch the games of a player, evaluate every position with the
configured UCI engine and print a Markdown report.

Games already cached at the requested depth are not analyzed again.

Examples:
  # Rapid games on lichess, searching at depth 14 with 4 engines
  insight analyze --user DrNykterstein --platform lichess --time-class rapid --depth 14 --workers 4

  # Games from a local PGN export
  insight analyze --user alice --pgn ./alice.pgn --time-class blitz`,
	RunE: runAnalyze,
}

var (
	platform   string
	timeClass  string
	startMonth string
	monthsBack int
	maxGames   int
	depth      int
	workers    int
	enginePath string
	pgnPath    string
	timeout    time.Duration
	reportPath string
)

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&platform, "platform", "", "game source: chesscom, lichess, pgn")
	f.StringVar(&timeClass, "time-class", "", "time control class: bullet, blitz, rapid")
	f.StringVar(&startMonth, "start", "", "most recent month to fetch (YYYY-MM)")
	f.IntVar(&monthsBack, "months-back", 0, "months to walk back from --start")
	f.IntVar(&maxGames, "max-games", 0, "maximum number of games to fetch")
	f.IntVar(&depth, "depth", 0, "engine search depth (1-18)")
	f.IntVar(&workers, "workers", 0, "number of engine processes")
	f.StringVar(&enginePath, "engine", "", "UCI engine binary")
	f.StringVar(&pgnPath, "pgn", "", "read games from this PGN file instead of a platform")
	f.DurationVar(&timeout, "timeout", 0, "abort the run after this long")
	f.StringVarP(&reportPath, "output", "o", "", "write the report to this file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("platform") {
		cfg.Platform = platform
	}
	if flags.Changed("pgn") {
		cfg.Platform = "pgn"
		cfg.PGNPath = pgnPath
	}
	if flags.Changed("time-class") {
		cfg.TimeClass = timeClass
	}
	if flags.Changed("start") {
		cfg.Start = startMonth
	}
	if flags.Changed("months-back") {
		cfg.MonthsBack = monthsBack
	}
	if flags.Changed("max-games") {
		cfg.MaxGames = maxGames
	}
	if flags.Changed("depth") {
		cfg.Depth = depth
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("engine") {
		cfg.EnginePath = enginePath
	}
	if cfg.Username == "" {
		return fmt.Errorf("--user is required")
	}

	// Setup context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Handle interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go cancelOnSignal(ctx, cancel, sigCh, os.Stderr)

	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	until, err := cfg.StartMonth(time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Analyzing %s games of %s\n", cfg.TimeClass, cfg.Username)
	fmt.Fprintf(os.Stderr, "  Source:  %s\n", cfg.Platform)
	fmt.Fprintf(os.Stderr, "  Depth:   %d\n", cfg.Depth)
	fmt.Fprintf(os.Stderr, "  Workers: %d\n", cfg.Workers)

	start := time.Now()
	res, err := e.analyzer.Analyze(ctx, insight.Request{
		Username:   cfg.Username,
		TimeClass:  cfg.Class(),
		Until:      until,
		MaxGames:   cfg.MaxGames,
		MonthsBack: cfg.MonthsBack,
		Progress: func(p schedule.Progress) {
			fmt.Fprintf(os.Stderr, "  [wave %d/%d] %d/%d games (%.0f%%)\n", p.Wave, p.Waves, p.Done, p.Total, p.Percent())
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Done in %s: %d analyzed, %d cached, %d failed\n",
		time.Since(start).Round(time.Millisecond), res.Analyzed, res.Cached, len(res.Failed))
	for _, f := range res.Failed {
		fmt.Fprintf(os.Stderr, "  skipped %s\n", f)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %v\n", w)
	}

	out := os.Stdout
	if reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	report.NewMarkdown(out).Write(fmt.Sprintf("%s (%s)", res.Username, cfg.TimeClass), res.Report)
	return nil
}

// cancelOnSignal cancels the run when a signal arrives. Games still being
// evaluated are abandoned, not drained.
func cancelOnSignal(ctx context.Context, cancel context.CancelFunc, sigCh <-chan os.Signal, w io.Writer) {
	select {
	case <-sigCh:
		fmt.Fprintln(w, "\nInterrupted, cancelling analysis...")
		cancel()
	case <-ctx.Done():
	}
}
