package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RunsRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	run := &DetectionRun{
		ID:          "run-1",
		Detector:    "camera-nitpick",
		ExportPath:  "/exports/all_videos_with_captions_and_critiques_20251104.json",
		Model:       "gpt-4o-2024-08-06",
		Seed:        42,
		SampleCount: -1,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertRun(ctx, run))

	loaded, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, run.Detector, loaded.Detector)
	assert.Equal(t, run.Seed, loaded.Seed)
	assert.Equal(t, run.SampleCount, loaded.SampleCount)

	missing, err := store.GetRun(ctx, "run-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "run-1", all[0].ID)
}

func TestSQLiteStore_ResultsUpsertAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.UpsertRun(ctx, &DetectionRun{
		ID:        "run-1",
		Detector:  "camera-nitpick",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.UpsertResult(ctx, &ResultRecord{
		RunID:     "run-1",
		SampleKey: "v1.mp4|camera",
		Label:     "Unexpected",
		RawOutput: "garbled",
	}))

	// Retrying a sample overwrites its earlier record.
	require.NoError(t, store.UpsertResult(ctx, &ResultRecord{
		RunID:     "run-1",
		SampleKey: "v1.mp4|camera",
		Label:     "Yes",
		Rationale: "terminology only",
	}))
	require.NoError(t, store.UpsertResult(ctx, &ResultRecord{
		RunID:     "run-1",
		SampleKey: "v2.mp4|camera",
		Label:     "No",
	}))

	results, err := store.LoadResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Yes", results["v1.mp4|camera"].Label)
	assert.Equal(t, "terminology only", results["v1.mp4|camera"].Rationale)
	assert.Equal(t, "No", results["v2.mp4|camera"].Label)
	assert.False(t, results["v1.mp4|camera"].UpdatedAt.IsZero())
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.UpsertRun(ctx, &DetectionRun{
		ID:        "run-1",
		Detector:  "global-edit",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.UpsertResult(ctx, &ResultRecord{
		RunID:     "run-1",
		SampleKey: "v1.mp4|camera",
		Label:     "No",
	}))

	require.NoError(t, store.DeleteRun(ctx, "run-1"))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, run)

	results, err := store.LoadResults(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.UpsertRun(ctx, &DetectionRun{
		ID:        "run-1",
		Detector:  "camera-nitpick",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	run, err := reopened.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "camera-nitpick", run.Detector)
}
