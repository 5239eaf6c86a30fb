package contracts

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a single dispatched action with identity and origin
// metadata. The engine processes envelopes, not bare actions: each envelope
// is applied to the reducer at most once, in admission order.
type Envelope[A any] struct {
	ID           string    `json:"id"`
	Action       A         `json:"action"`
	Source       Source    `json:"source"`
	DispatchedAt time.Time `json:"dispatchedAt"`
}

// NewEnvelope wraps action with a generated ID and the current UTC timestamp.
func NewEnvelope[A any](action A, source Source) Envelope[A] {
	return Envelope[A]{
		ID:           uuid.New().String(),
		Action:       action,
		Source:       source,
		DispatchedAt: time.Now().UTC(),
	}
}

// TypeName reports a stable, human-readable name for an action or state
// value: the non-pointer type name, or the full type string for unnamed
// types. Used for log fields, journal entries and relay routing keys.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
