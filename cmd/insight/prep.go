package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/insight/internal/quiz"
)

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Compare cached games with prepared opening lines",
	Long: `Read a study export (one PGN game per prepared line, grouped into
chapters by the Event tag) and report, for every cached game, where it
left preparation and whether the opponent was the one who deviated.

Examples:
  insight prep --user alice --lines ./repertoire.pgn`,
	Args: cobra.NoArgs,
	RunE: runPrep,
}

var linesPath string

func init() {
	prepCmd.Flags().StringVar(&linesPath, "lines", "", "PGN file with prepared lines")
	_ = prepCmd.MarkFlagRequired("lines")
	rootCmd.AddCommand(prepCmd)
}

func runPrep(cmd *cobra.Command, args []string) error {
	f, err := os.Open(linesPath)
	if err != nil {
		return fmt.Errorf("opening lines: %w", err)
	}
	chapters, err := quiz.LoadChapters(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading lines: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	e, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	games, err := cachedGames(ctx, e)
	if err != nil {
		return err
	}

	var inBook, success int
	fmt.Printf("%-8s %-5s %-8s %-24s %s\n", "RESULT", "PLY", "MOVE", "CHAPTER", "GAME")
	for i := range games {
		r, err := quiz.ComparePrep(chapters, &games[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", games[i].URL, err)
			continue
		}
		if r.InBook == 0 {
			continue
		}
		inBook++
		verdict := "left"
		switch {
		case !r.Deviated:
			verdict = "covered"
		case r.Success:
			verdict = "success"
			success++
		}
		fmt.Printf("%-8s %-5d %-8s %-24s %s\n", verdict, r.Ply, r.Move, r.ChapterTitle, r.GameURL)
	}
	if inBook == 0 {
		fmt.Println("No cached game reached a prepared position.")
		return nil
	}
	fmt.Printf("\nOpponent deviated first in %d of %d prepared games (%.0f%%)\n",
		success, inBook, 100*float64(success)/float64(inBook))
	return nil
}
