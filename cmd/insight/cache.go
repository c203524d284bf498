package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and delete cached analysis buckets",
	Long: `Every analyzed game is cached in a bucket keyed by month, time
class and username, e.g. "2024-03%blitz%alice". A bucket records the
lowest search depth of its games.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached buckets",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <bucket>",
	Short: "Delete one cached bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheDelete,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheDeleteCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
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

	buckets, err := e.analyzer.Buckets(ctx, cfg.Username)
	if err != nil {
		return fmt.Errorf("listing buckets: %w", err)
	}
	if len(buckets) == 0 {
		fmt.Println("No cached buckets.")
		return nil
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%-40s %6s %6s\n", "BUCKET", "GAMES", "DEPTH")
	for _, k := range keys {
		b := buckets[k]
		fmt.Printf("%-40s %6d %6d\n", k, len(b.Games), b.Depth)
	}
	return nil
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
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

	if err := e.analyzer.DeleteBucket(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
