package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(id string, createdAt time.Time) *Run {
	return &Run{
		ID:          id,
		CreatedAt:   createdAt,
		Channel:     "text_area",
		Style:       "bullet_points",
		InputWords:  1500,
		OutputWords: 120,
		Chunks:      4,
		Depth:       1,
		Coverage:    0.75,
		Degraded:    true,
		Duration:    1500 * time.Millisecond,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Record(ctx, testRun("older", now.Add(-time.Hour))))
	require.NoError(t, store.Record(ctx, testRun("newer", now)))
	failed := testRun("failed", now.Add(-2*time.Hour))
	failed.ErrorKind = "too_short"
	failed.Degraded = false
	require.NoError(t, store.Record(ctx, failed))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "newer", runs[0].ID)
	assert.Equal(t, "older", runs[1].ID)
	assert.Equal(t, "failed", runs[2].ID)

	want := testRun("newer", now)
	assert.True(t, want.CreatedAt.Equal(runs[0].CreatedAt))
	want.CreatedAt = runs[0].CreatedAt
	assert.Equal(t, want, runs[0])
	assert.Equal(t, "too_short", runs[2].ErrorKind)
	assert.False(t, runs[2].Degraded)

	runs, err = store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, testRun("dup", time.Now())))
	assert.Error(t, store.Record(ctx, testRun("dup", time.Now())))
}

func TestStore_DeleteBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Record(ctx, testRun("expired", now.AddDate(0, 0, -40))))
	require.NoError(t, store.Record(ctx, testRun("kept", now)))

	deleted, err := store.DeleteBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].ID)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), testRun("a", time.Now())))
	require.NoError(t, store.Close())

	// 重新打开后数据仍在
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRun_MarshalJSON(t *testing.T) {
	run := testRun("a", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := json.Marshal(run)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(1500), got["duration_ms"])
	assert.Equal(t, "a", got["id"])
	assert.Equal(t, "bullet_points", got["style"])
	assert.NotContains(t, got, "Duration")
	assert.NotContains(t, got, "error_kind")
}
