package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNilEntry is returned by Record when given a nil entry.
var ErrNilEntry = errors.New("journal: entry must not be nil")

// Entry is one journaled reduction.
type Entry struct {
	// Seq is assigned by the journal on Record, monotonically increasing.
	Seq         int64           `json:"seq"`
	ID          string          `json:"id"`
	ActionType  string          `json:"actionType"`
	Source      string          `json:"source"`
	RecordedAt  time.Time       `json:"recordedAt"`
	Action      json.RawMessage `json:"action,omitempty"`
	BeforeState json.RawMessage `json:"beforeState,omitempty"`
	AfterState  json.RawMessage `json:"afterState,omitempty"`
	Published   bool            `json:"published"`
	Duration    time.Duration   `json:"duration"`
}

// Query filters journal reads. Zero fields match everything; results come
// back in ascending sequence order.
type Query struct {
	// ActionType matches entries with exactly this action type.
	ActionType string
	// Source matches entries dispatched from this source tag.
	Source string
	// Since matches entries recorded at or after this time.
	Since time.Time
	// Until matches entries recorded before this time.
	Until time.Time
	// AfterSeq matches entries with a sequence number greater than this.
	AfterSeq int64
	// Limit caps the number of returned entries; zero means no cap.
	Limit int
}

func (q Query) matches(e *Entry) bool {
	if q.ActionType != "" && e.ActionType != q.ActionType {
		return false
	}
	if q.Source != "" && e.Source != q.Source {
		return false
	}
	if !q.Since.IsZero() && e.RecordedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !e.RecordedAt.Before(q.Until) {
		return false
	}
	if e.Seq <= q.AfterSeq {
		return false
	}
	return true
}

// Stats summarizes a journal's contents.
type Stats struct {
	TotalEntries    int64            `json:"totalEntries"`
	EntriesByType   map[string]int64 `json:"entriesByType"`
	EntriesBySource map[string]int64 `json:"entriesBySource"`
	PublishedCount  int64            `json:"publishedCount"`
	AverageDuration time.Duration    `json:"averageDuration"`
	LastEntry       time.Time        `json:"lastEntry"`
}

// Journal stores reduction records.
type Journal interface {
	// Record appends an entry and assigns its sequence number.
	Record(ctx context.Context, entry *Entry) error

	// Entries returns the entries matching q in ascending sequence order.
	Entries(ctx context.Context, q Query) ([]*Entry, error)

	// Stats returns journal statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Clear removes entries older than the specified duration and reports
	// how many were removed.
	Clear(ctx context.Context, olderThan time.Duration) (int, error)

	// Close releases the journal's resources.
	Close() error
}
