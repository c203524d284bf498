package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags.
	configPath   string
	verbose      bool
	cacheBackend string
	cacheDir     string
	codecName    string
	metricsFile  string
	username     string
)

var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "Engine-backed analytics for a player's chess games",
	Long: `Insight fetches a player's games from chess.com, lichess or a PGN
file, scores every position with a UCI engine and reports opening
results, tactical mistakes, advantage conversion, time management and
endgames. Results are cached per month so later runs only analyze new
games.

Examples:
  # Analyze the last 200 blitz games of a chess.com player
  insight analyze --user hikaru --time-class blitz --max-games 200

  # List and delete cached buckets
  insight cache list --user hikaru
  insight cache delete "2024-03%blitz%Hikaru"

  # Drill the mistakes of cached games
  insight quiz --user hikaru`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $INSIGHT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "cache backend: memory, disk, s3, gcs")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory of the disk cache")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "", "bucket compression: zstd, gzip, none")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "player username")
}
