package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// seedMemory fills a journal with four entries a minute apart.
func seedMemory(t *testing.T) *Memory {
	t.Helper()

	j := NewMemory()
	ctx := context.Background()
	fixtures := []struct {
		actionType string
		source     string
		offset     time.Duration
		published  bool
		duration   time.Duration
	}{
		{"Increment", "ui", 0, true, 10 * time.Millisecond},
		{"Increment", "api", time.Minute, false, 20 * time.Millisecond},
		{"Reset", "ui", 2 * time.Minute, true, 30 * time.Millisecond},
		{"Decrement", "worker", 3 * time.Minute, true, 40 * time.Millisecond},
	}
	for i, f := range fixtures {
		require.NoError(t, j.Record(ctx, &Entry{
			ID:         fmt.Sprintf("id-%d", i),
			ActionType: f.actionType,
			Source:     f.source,
			RecordedAt: seedBase.Add(f.offset),
			Published:  f.published,
			Duration:   f.duration,
		}))
	}
	return j
}

func TestMemoryRecordAssignsSequence(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := &Entry{ID: fmt.Sprintf("id-%d", i), ActionType: "Increment"}
		require.NoError(t, j.Record(ctx, e))
		assert.Equal(t, int64(i+1), e.Seq)
		assert.False(t, e.RecordedAt.IsZero())
	}

	entries, err := j.Entries(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMemoryRecordNilEntry(t *testing.T) {
	j := NewMemory()
	assert.ErrorIs(t, j.Record(context.Background(), nil), ErrNilEntry)
}

func TestMemoryRotation(t *testing.T) {
	j := NewMemory(WithMaxEntries(10), WithRotatePercent(0.2))
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		require.NoError(t, j.Record(ctx, &Entry{ID: fmt.Sprintf("id-%d", i)}))
	}

	entries, err := j.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 9)
	assert.Equal(t, int64(3), entries[0].Seq)
	assert.Equal(t, int64(11), entries[len(entries)-1].Seq)
}

func TestMemoryRotationDropsAtLeastOne(t *testing.T) {
	j := NewMemory(WithMaxEntries(3), WithRotatePercent(0.01))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, j.Record(ctx, &Entry{}))
	}

	entries, err := j.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].Seq)
}

func TestMemoryEntriesQuery(t *testing.T) {
	j := seedMemory(t)
	ctx := context.Background()

	t.Run("no filter returns everything", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	})

	t.Run("by action type", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{ActionType: "Increment"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "ui", entries[0].Source)
		assert.Equal(t, "api", entries[1].Source)
	})

	t.Run("by source", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{Source: "ui"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Increment", entries[0].ActionType)
		assert.Equal(t, "Reset", entries[1].ActionType)
	})

	t.Run("since is inclusive", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{Since: seedBase.Add(2 * time.Minute)})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Reset", entries[0].ActionType)
	})

	t.Run("until is exclusive", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{Until: seedBase.Add(2 * time.Minute)})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Increment", entries[1].ActionType)
	})

	t.Run("after sequence", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{AfterSeq: 2})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(3), entries[0].Seq)
		assert.Equal(t, int64(4), entries[1].Seq)
	})

	t.Run("limit caps results", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{Limit: 2})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(1), entries[0].Seq)
	})

	t.Run("filters combine", func(t *testing.T) {
		entries, err := j.Entries(ctx, Query{ActionType: "Increment", Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(1), entries[0].Seq)
	})
}

func TestMemoryStats(t *testing.T) {
	j := seedMemory(t)

	stats, err := j.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalEntries)
	assert.Equal(t, int64(2), stats.EntriesByType["Increment"])
	assert.Equal(t, int64(1), stats.EntriesByType["Reset"])
	assert.Equal(t, int64(1), stats.EntriesByType["Decrement"])
	assert.Equal(t, int64(2), stats.EntriesBySource["ui"])
	assert.Equal(t, int64(3), stats.PublishedCount)
	assert.Equal(t, 25*time.Millisecond, stats.AverageDuration)
	assert.True(t, stats.LastEntry.Equal(seedBase.Add(3*time.Minute)))
}

func TestMemoryStatsEmpty(t *testing.T) {
	stats, err := NewMemory().Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.AverageDuration)
	assert.True(t, stats.LastEntry.IsZero())
}

func TestMemoryClear(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, j.Record(ctx, &Entry{ID: "old", RecordedAt: old}))
	require.NoError(t, j.Record(ctx, &Entry{ID: "older", RecordedAt: old.Add(-time.Hour)}))
	require.NoError(t, j.Record(ctx, &Entry{ID: "fresh"}))

	removed, err := j.Clear(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := j.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].ID)
}
