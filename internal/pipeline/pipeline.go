// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a composed extraction over a stream of serialized
// records: decode once per record, extract and filter per extractor, persist
// kept examples.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/extraction-engine/internal/composer"
	"github.com/pdiddy/extraction-engine/internal/record"
)

// Sink receives run metadata and kept examples. *store.Store satisfies it;
// tests supply fakes.
type Sink interface {
	BeginRun(ctx context.Context) (int64, error)
	PutExample(ctx context.Context, runID int64, idx int, ex *composer.Example) error
	FinishRun(ctx context.Context, runID int64, records, kept, dropped, failed int) error
}

// Summary holds counts from one pipeline run.
type Summary struct {
	Records int
	Kept    int
	Dropped int
	Failed  int
}

// HasFailures reports whether any records failed to decode or extract.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Run processes every JSONL record from r through the composer, persists
// kept examples to the sink, and prints per-record progress lines to w.
// A malformed record fails that record and continues; contract violations
// are correctness bugs and abort the run.
func Run(ctx context.Context, comp *composer.Composer, r io.Reader, sink Sink, w io.Writer) (Summary, error) {
	runID, err := sink.BeginRun(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	reader := record.NewReader(comp.FeatureMap(), r)

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		raw, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var decodeErr *record.DecodeError
		if err != nil && !errors.As(err, &decodeErr) {
			// Stream-level read failure, not one bad record.
			return summary, err
		}

		summary.Records++
		idx := reader.Line()

		if decodeErr != nil {
			fmt.Fprintf(w, "failed  record %d: %v\n", idx, decodeErr.Err)
			log.Warn().Int("record", idx).Err(decodeErr.Err).Msg("record decode failed")
			summary.Failed++
			continue
		}

		ex, err := comp.Extract(raw)
		if err != nil {
			// Contract violations and unimplemented extractors reproduce on
			// every record; stop instead of failing the whole stream one
			// record at a time.
			return summary, fmt.Errorf("record %d: %w", idx, err)
		}

		if ex.Dropped() {
			fmt.Fprintf(w, "dropped record %d\n", idx)
			log.Debug().Int("record", idx).Msg("record dropped")
			summary.Dropped++
			continue
		}

		if err := sink.PutExample(ctx, runID, idx, ex); err != nil {
			fmt.Fprintf(w, "failed  record %d: %v\n", idx, err)
			log.Warn().Int("record", idx).Err(err).Msg("example store failed")
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "kept    record %d (%d fields, bucket %d)\n", idx, len(ex.Fields), ex.Bucket)
		summary.Kept++
	}

	if err := sink.FinishRun(ctx, runID, summary.Records, summary.Kept, summary.Dropped, summary.Failed); err != nil {
		return summary, err
	}

	log.Info().
		Int64("run", runID).
		Int("records", summary.Records).
		Int("kept", summary.Kept).
		Int("dropped", summary.Dropped).
		Int("failed", summary.Failed).
		Msg("extraction run complete")

	return summary, nil
}
