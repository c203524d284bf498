package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/insight/internal/game"
	"github.com/discochess/insight/internal/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Replay cached mistakes as puzzles",
	Long: `Draw positions in which the player made a mistake or missed a gain
and ask for the engine's move. Answers are accepted in SAN ("Nf3") or
UCI ("g1f3"). Type "skip" to see the solution or "quit" to stop.

Games must have been analyzed with main lines enabled.`,
	Args: cobra.NoArgs,
	RunE: runQuiz,
}

var quizSeed uint64

func init() {
	quizCmd.Flags().Uint64Var(&quizSeed, "seed", 0, "random seed (default: time based)")
	rootCmd.AddCommand(quizCmd)
}

// cachedGames returns every cached game of the configured user, oldest
// first.
func cachedGames(ctx context.Context, e *env) ([]game.Game, error) {
	if e.cfg.Username == "" {
		return nil, fmt.Errorf("--user is required")
	}
	buckets, err := e.analyzer.Buckets(ctx, e.cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	var games []game.Game
	for _, b := range buckets {
		games = append(games, b.Games...)
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].EndTime.Before(games[j].EndTime) })
	return games, nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
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
	var pool []quiz.Puzzle
	for i := range games {
		p, err := quiz.Build(&games[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", games[i].URL, err)
			continue
		}
		pool = append(pool, p...)
	}
	if len(pool) == 0 {
		fmt.Println("No puzzles: analyze some games with main lines first.")
		return nil
	}

	seed := quizSeed
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}
	s := quiz.NewSession(pool, seed)
	in := bufio.NewScanner(os.Stdin)
	solved, asked := 0, 0

	for {
		p, err := s.Next()
		if errors.Is(err, quiz.ErrExhausted) {
			break
		}
		asked++
		fmt.Printf("\nPuzzle %d (%d left) from %s, ply %d\n", asked, s.Remaining(), p.GameURL, p.Ply)
		fmt.Printf("  FEN:    %s\n", p.FEN)
		fmt.Printf("  Played: %s (%s)\n", p.Played, p.Kind)

		for {
			fmt.Print("Your move: ")
			if !in.Scan() {
				fmt.Printf("\nSolved %d of %d\n", solved, asked)
				return in.Err()
			}
			answer := strings.TrimSpace(in.Text())
			switch answer {
			case "":
				continue
			case "quit":
				fmt.Printf("Solved %d of %d\n", solved, asked-1)
				return nil
			case "skip":
				fmt.Printf("  Solution: %s\n", strings.Join(p.SolutionSAN, " "))
			default:
				ok, err := p.Check(answer)
				if err != nil {
					fmt.Printf("  Illegal move: %v\n", err)
					continue
				}
				if !ok {
					fmt.Println("  Not the engine's move, try again (or skip).")
					continue
				}
				solved++
				fmt.Printf("  Correct! Line: %s\n", strings.Join(p.SolutionSAN, " "))
			}
			break
		}
	}
	fmt.Printf("\nSolved %d of %d\n", solved, asked)
	return nil
}
