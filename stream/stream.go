package stream

import (
	"sync"
)

// Stream is a multi-subscriber replay-last stream. It is created with an
// initial value and always has a current one.
//
// Publish is intended to be called from a single goroutine (a store's
// serialized execution context). Subscribe, Value, Cancel and Close are safe
// from any goroutine.
type Stream[T any] struct {
	mu      sync.RWMutex
	current T
	seq     uint64
	subs    map[string]*Subscription[T]
	closed  bool
	done    chan struct{}
}

// New creates a stream whose current value is initial.
func New[T any](initial T) *Stream[T] {
	return &Stream[T]{
		current: initial,
		seq:     1,
		subs:    make(map[string]*Subscription[T]),
		done:    make(chan struct{}),
	}
}

// Value returns the current value.
func (s *Stream[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// snapshot returns the current value together with its sequence number.
func (s *Stream[T]) snapshot() (T, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.seq
}

// Subscribe registers fn and synchronously delivers the current value to it
// before any later published value. Each published value then reaches fn
// exactly once, in publish order, until the subscription is cancelled or
// the stream is closed.
func (s *Stream[T]) Subscribe(fn func(T), opts ...SubscribeOption[T]) (*Subscription[T], error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	cfg := subscribeConfig[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	sub := newSubscription(s, fn, cfg)
	s.subs[sub.id] = sub
	replay, seq := s.current, s.seq
	s.mu.Unlock()

	// Replay outside the stream lock. If a publish raced ahead of us its
	// higher sequence number wins and this delivery is suppressed.
	sub.deliver(seq, replay)
	return sub, nil
}

// Publish makes v the current value and delivers it to every subscription.
// Publishing on a closed stream is a no-op.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.current = v
	s.seq++
	seq := s.seq
	targets := make([]*Subscription[T], 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(seq, v)
	}
}

// Len reports the number of registered subscriptions.
func (s *Stream[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Closed reports whether Close has been called.
func (s *Stream[T]) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Done returns a channel that is closed when the stream closes.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Close terminates the stream and cancels every subscription. The current
// value remains readable through Value. Close is idempotent.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	targets := make([]*Subscription[T], 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.subs = make(map[string]*Subscription[T])
	s.mu.Unlock()

	close(s.done)
	for _, sub := range targets {
		sub.state.Store(int32(StateCancelled))
	}
}

// remove drops a subscription from the registry.
func (s *Stream[T]) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
