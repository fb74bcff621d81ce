// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/extraction-engine/internal/composer"
	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testExample(t *testing.T, bucket types.BucketID) *composer.Example {
	t.Helper()
	xyz, err := tensor.NewFloat32(types.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	labels, err := tensor.NewInt32(types.Shape{2}, []int64{7, 0})
	require.NoError(t, err)
	return &composer.Example{
		Fields: extractor.Output{
			"laser.points_xyz": xyz,
			"label.labels":     labels,
		},
		Buckets: map[string]types.BucketID{"laser": bucket},
		Bucket:  bucket,
	}
}

func TestStore_RunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)

	require.NoError(t, s.PutExample(ctx, runID, 1, testExample(t, types.BucketKeep)))
	require.NoError(t, s.PutExample(ctx, runID, 2, testExample(t, types.BucketKeep)))
	require.NoError(t, s.PutExample(ctx, runID, 3, testExample(t, 5)))
	require.NoError(t, s.FinishRun(ctx, runID, 4, 3, 1, 0))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 4, runs[0].Records)
	assert.Equal(t, 3, runs[0].Kept)
	assert.Equal(t, 1, runs[0].Dropped)
	assert.False(t, runs[0].CreatedAt.IsZero())

	counts, err := s.BucketCounts(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[types.BucketID]int{types.BucketKeep: 2, 5: 1}, counts)
}

func TestStore_RunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx)
	require.NoError(t, err)
	second, err := s.BeginRun(ctx)
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
}

func TestStore_MaxResultsCapsRuns(t *testing.T) {
	s, err := NewStore(types.StoreConfig{Dir: t.TempDir(), MaxResults: 2})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.BeginRun(ctx)
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestNewStore_CreatesIndexDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.StoreConfig{Dir: filepath.Join(dir, "batches")})
	require.NoError(t, err)
	s.Close()

	s2, err := NewStore(types.StoreConfig{Dir: filepath.Join(dir, "batches")})
	require.NoError(t, err)
	s2.Close()
}
