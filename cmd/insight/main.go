// Package main provides the insight CLI for analyzing a player's chess
// games and browsing the cached results.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
