package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCleaner 记录清理调用
type fakeCleaner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakeCleaner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 0, f.err
}

func (f *fakeCleaner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestJanitor_Disabled(t *testing.T) {
	j := NewJanitor(nil, config.History{Enable: false, Cron: "0 3 * * *"})
	require.NoError(t, j.Start())
	assert.NotPanics(t, j.Stop)
}

func TestJanitor_InvalidCron(t *testing.T) {
	j := NewJanitor(nil, config.History{Enable: true, Cron: "not a cron"})
	j.store = &fakeCleaner{}
	assert.Error(t, j.Start())
}

func TestJanitor_CleanupOnStart(t *testing.T) {
	cleaner := &fakeCleaner{}
	j := NewJanitor(nil, config.History{Enable: true, Cron: "0 3 * * *", RetentionDays: 30})
	j.store = cleaner

	require.NoError(t, j.Start())
	defer j.Stop()

	assert.Eventually(t, func() bool { return cleaner.calls() == 1 }, time.Second, 10*time.Millisecond)

	cleaner.mu.Lock()
	cutoff := cleaner.cutoffs[0]
	cleaner.mu.Unlock()
	want := time.Now().UTC().AddDate(0, 0, -30)
	assert.WithinDuration(t, want, cutoff, time.Minute)
}

func TestJanitor_CleanupStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.Record(ctx, testRun("expired", now.AddDate(0, 0, -10))))
	require.NoError(t, store.Record(ctx, testRun("kept", now.AddDate(0, 0, -1))))

	j := NewJanitor(store, config.History{Enable: true, Cron: "0 3 * * *", RetentionDays: 7})
	j.cleanup()

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].ID)
}

func TestJanitor_CleanupError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("disk full")}
	j := NewJanitor(nil, config.History{Enable: true, RetentionDays: 7})
	j.store = cleaner
	assert.NotPanics(t, j.cleanup)
	assert.Equal(t, 1, cleaner.calls())
}
