package state

import (
	"sync"

	"github.com/glimte/statemate-go/stream"
)

// Container owns the canonical state value and the stream its published
// snapshots flow through.
//
// Update and Set are intended to be called from a store's serialized
// execution context; Value and Stream are safe from any goroutine. Readers
// never observe a partially applied update.
type Container[S any] struct {
	mu     sync.RWMutex
	value  S
	stream *stream.Stream[S]
}

// NewContainer creates a container holding initial, with a stream whose
// replay value is initial.
func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{
		value:  initial,
		stream: stream.New(initial),
	}
}

// Value returns a snapshot of the canonical state.
func (c *Container[S]) Value() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Stream returns the stream of published snapshots.
func (c *Container[S]) Stream() *stream.Stream[S] {
	return c.stream
}

// Update runs fn on the state under the write lock. fn may mutate the value
// in place and reports whether the committed snapshot should be published.
// Publishing happens after the critical section, with the snapshot taken at
// commit time.
func (c *Container[S]) Update(fn func(current *S) bool) {
	c.mu.Lock()
	publish := fn(&c.value)
	snapshot := c.value
	c.mu.Unlock()

	if publish {
		c.stream.Publish(snapshot)
	}
}

// Set commits v and publishes it.
func (c *Container[S]) Set(v S) {
	c.Update(func(current *S) bool {
		*current = v
		return true
	})
}

// Close closes the snapshot stream. The value remains readable.
func (c *Container[S]) Close() {
	c.stream.Close()
}
