// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extraction-engine/internal/store"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Query stored extraction runs",
	Long: `Stats lists recent extraction runs with their record counts. With --run it
prints the per-bucket example counts of one run instead.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		counts, err := st.BucketCounts(ctx, runID)
		if err != nil {
			return err
		}
		buckets := make([]types.BucketID, 0, len(counts))
		for b := range counts {
			buckets = append(buckets, b)
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

		fmt.Printf("run %d:\n", runID)
		for _, b := range buckets {
			fmt.Printf("  bucket %-5d %d example(s)\n", b, counts[b])
		}
		return nil
	}

	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run %-4d %s  %d record(s): %d kept, %d dropped, %d failed\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Records, r.Kept, r.Dropped, r.Failed)
	}
	return nil
}

func init() {
	statsCmd.Flags().Int64("run", 0, "show per-bucket counts for one run id")

	rootCmd.AddCommand(statsCmd)
}
