// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extraction-engine/internal/composer"
	"github.com/pdiddy/extraction-engine/internal/pipeline"
	"github.com/pdiddy/extraction-engine/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured extraction pipeline over a records file",
	Long: `Run composes the configured extractors, decodes each JSONL record once
against their merged feature map, extracts and filters per extractor, and
stores kept examples. Records that fail to decode are reported and skipped;
contract violations abort the run.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("records"); path != "" {
		cfg.RecordsPath = path
	}
	if cfg.RecordsPath == "" {
		return fmt.Errorf("no records file: set records_path in the config or pass --records")
	}

	comp, err := composer.FromSpecs(cfg.Extractors)
	if err != nil {
		return err
	}

	var in io.Reader
	if cfg.RecordsPath == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(cfg.RecordsPath)
		if err != nil {
			return fmt.Errorf("opening records file: %w", err)
		}
		defer f.Close()
		in = f
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := pipeline.Run(context.Background(), comp, in, st, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("processed %d record(s): %d kept, %d dropped, %d failed\n",
		summary.Records, summary.Kept, summary.Dropped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d record(s) failed", summary.Failed)
	}
	return nil
}

func init() {
	runCmd.Flags().String("records", "", "JSONL records file to process (\"-\" reads stdin)")

	rootCmd.AddCommand(runCmd)
}
