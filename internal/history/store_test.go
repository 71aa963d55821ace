package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i, result := range []string{"success", "error", "success"} {
		require.NoError(t, store.Append(ctx, Run{
			JobID:       "job",
			PageID:      "page-1",
			EventAction: "update",
			Path:        "deferred",
			Result:      result,
			Duration:    250 * time.Millisecond,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "success", runs[0].Result)
	require.Equal(t, "error", runs[1].Result)
	require.Equal(t, 250*time.Millisecond, runs[0].Duration)
	require.True(t, runs[0].CompletedAt.After(runs[1].CompletedAt))
}

func TestPageRunsFiltersById(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Run{PageID: "a", EventAction: "create", Path: "immediate", Result: "success", CompletedAt: time.Now()}))
	require.NoError(t, store.Append(ctx, Run{PageID: "b", EventAction: "update", Path: "deferred", Result: "success", CompletedAt: time.Now()}))
	require.NoError(t, store.Append(ctx, Run{PageID: "a", EventAction: "update", Path: "deferred", Result: "error", CompletedAt: time.Now()}))

	runs, err := store.PageRuns(ctx, "a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "create", runs[0].EventAction)
	require.Equal(t, "error", runs[1].Result)
}

func TestTotals(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	counts, err := store.Totals(ctx)
	require.NoError(t, err)
	require.Zero(t, counts.Total)

	require.NoError(t, store.Append(ctx, Run{PageID: "a", EventAction: "create", Path: "immediate", Result: "success", CompletedAt: time.Now()}))
	require.NoError(t, store.Append(ctx, Run{PageID: "a", EventAction: "update", Path: "deferred", Result: "error", CompletedAt: time.Now()}))

	counts, err = store.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{Total: 2, Success: 1, Failed: 1}, counts)
}
