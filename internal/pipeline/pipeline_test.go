// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/extraction-engine/internal/composer"
	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// fakeSink records everything the pipeline stores.
type fakeSink struct {
	examples []*composer.Example
	finished bool
	records  int
	kept     int
	dropped  int
	failed   int
}

func (f *fakeSink) BeginRun(context.Context) (int64, error) { return 1, nil }

func (f *fakeSink) PutExample(_ context.Context, _ int64, _ int, ex *composer.Example) error {
	f.examples = append(f.examples, ex)
	return nil
}

func (f *fakeSink) FinishRun(_ context.Context, _ int64, records, kept, dropped, failed int) error {
	f.finished = true
	f.records, f.kept, f.dropped, f.failed = records, kept, dropped, failed
	return nil
}

func intPtr(n int) *int { return &n }

func testComposer(t *testing.T) *composer.Composer {
	t.Helper()
	comp, err := composer.FromSpecs([]types.ExtractorSpec{
		{Name: "laser", Laser: &types.LaserConfig{MaxNumPoints: intPtr(4), NumFeatures: 1}},
	})
	require.NoError(t, err)
	return comp
}

func TestRun_KeepsDropsAndFails(t *testing.T) {
	input := strings.Join([]string{
		`{"laser.points_xyz": [1, 2, 3], "laser.points_feature": [0.5]}`,
		`{"laser.points_xyz": [], "laser.points_feature": []}`,
		`not json`,
	}, "\n")

	sink := &fakeSink{}
	var progress bytes.Buffer

	summary, err := Run(context.Background(), testComposer(t), strings.NewReader(input), sink, &progress)
	require.NoError(t, err)

	assert.Equal(t, Summary{Records: 3, Kept: 1, Dropped: 1, Failed: 1}, summary)
	assert.True(t, summary.HasFailures())

	require.Len(t, sink.examples, 1)
	assert.True(t, sink.finished)
	assert.Equal(t, 3, sink.records)
	assert.Equal(t, 1, sink.kept)

	out := progress.String()
	assert.Contains(t, out, "kept    record 1")
	assert.Contains(t, out, "dropped record 2")
	assert.Contains(t, out, "failed  record 3")
}

func TestRun_EmptyStream(t *testing.T) {
	sink := &fakeSink{}
	summary, err := Run(context.Background(), testComposer(t), strings.NewReader(""), sink, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.True(t, sink.finished)
}

// violating declares two fields but produces one; every record trips the
// contract check.
type violating struct {
	extractor.Base
}

func (violating) Name() string { return "violating" }

func (violating) Shape() (types.ShapeMap, error) {
	return types.ShapeMap{"a": {1}, "b": {1}}, nil
}

func (violating) DType() (types.DTypeMap, error) {
	return types.DTypeMap{"a": types.DTFloat32, "b": types.DTFloat32}, nil
}

func (violating) Extract(extractor.RawFields) (extractor.Output, error) {
	v, err := tensor.NewFloat32(types.Shape{1}, []float64{1})
	if err != nil {
		return nil, err
	}
	return extractor.Output{"a": v}, nil
}

func TestRun_ContractViolationAbortsRun(t *testing.T) {
	comp, err := composer.New(violating{})
	require.NoError(t, err)

	sink := &fakeSink{}
	_, err = Run(context.Background(), comp, strings.NewReader(`{}`+"\n"+`{}`), sink, &bytes.Buffer{})
	require.Error(t, err)

	var cerr *extractor.ContractError
	assert.ErrorAs(t, err, &cerr)
	assert.Empty(t, sink.examples)
	assert.False(t, sink.finished)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testComposer(t), strings.NewReader(`{}`), &fakeSink{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
