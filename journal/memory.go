package journal

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Journal backed by a bounded slice. When the bound
// is reached a fraction of the oldest entries is rotated out.
type Memory struct {
	mu            sync.RWMutex
	entries       []*Entry
	nextSeq       int64
	maxEntries    int
	rotatePercent float64
}

// MemoryOption configures the in-memory journal.
type MemoryOption func(*Memory)

// WithMaxEntries sets the maximum number of retained entries.
func WithMaxEntries(max int) MemoryOption {
	return func(j *Memory) {
		if max > 0 {
			j.maxEntries = max
		}
	}
}

// WithRotatePercent sets the fraction of entries dropped when the bound is
// reached.
func WithRotatePercent(percent float64) MemoryOption {
	return func(j *Memory) {
		if percent > 0 && percent <= 1 {
			j.rotatePercent = percent
		}
	}
}

// NewMemory creates a new in-memory journal.
func NewMemory(opts ...MemoryOption) *Memory {
	j := &Memory{
		entries:       make([]*Entry, 0),
		maxEntries:    10000,
		rotatePercent: 0.2,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record implements Journal.
func (j *Memory) Record(_ context.Context, entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextSeq++
	entry.Seq = j.nextSeq
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	j.entries = append(j.entries, entry)

	if len(j.entries) > j.maxEntries {
		drop := int(float64(j.maxEntries) * j.rotatePercent)
		if drop < 1 {
			drop = 1
		}
		j.entries = append(j.entries[:0:0], j.entries[drop:]...)
	}
	return nil
}

// Entries implements Journal.
func (j *Memory) Entries(_ context.Context, q Query) ([]*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []*Entry
	for _, e := range j.entries {
		if !q.matches(e) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Stats implements Journal.
func (j *Memory) Stats(_ context.Context) (*Stats, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	stats := &Stats{
		TotalEntries:    int64(len(j.entries)),
		EntriesByType:   make(map[string]int64),
		EntriesBySource: make(map[string]int64),
	}

	var totalDuration time.Duration
	for _, e := range j.entries {
		stats.EntriesByType[e.ActionType]++
		stats.EntriesBySource[e.Source]++
		if e.Published {
			stats.PublishedCount++
		}
		totalDuration += e.Duration
		if e.RecordedAt.After(stats.LastEntry) {
			stats.LastEntry = e.RecordedAt
		}
	}
	if len(j.entries) > 0 {
		stats.AverageDuration = totalDuration / time.Duration(len(j.entries))
	}
	return stats, nil
}

// Clear implements Journal.
func (j *Memory) Clear(_ context.Context, olderThan time.Duration) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	kept := j.entries[:0:0]
	removed := 0
	for _, e := range j.entries {
		if e.RecordedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	j.entries = kept
	return removed, nil
}

// Close implements Journal.
func (j *Memory) Close() error {
	return nil
}
