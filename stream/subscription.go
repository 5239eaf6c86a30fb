package stream

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State represents the lifecycle state of a subscription.
type State int32

const (
	// StateActive means the subscription is receiving values.
	StateActive State = iota

	// StatePaused means deliveries are being dropped. Resuming does not
	// replay values missed while paused; use Sync to realign.
	StatePaused

	// StateCancelled means the subscription is permanently over.
	StateCancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type subscribeConfig[T any] struct {
	filter func(T) bool
	once   bool
}

// SubscribeOption configures a subscription.
type SubscribeOption[T any] func(*subscribeConfig[T])

// WithFilter delivers only values for which pred returns true. Values that
// do not match are dropped for this subscription and are not redelivered.
func WithFilter[T any](pred func(T) bool) SubscribeOption[T] {
	return func(c *subscribeConfig[T]) {
		c.filter = pred
	}
}

// WithOnce cancels the subscription after its first accepted delivery.
func WithOnce[T any]() SubscribeOption[T] {
	return func(c *subscribeConfig[T]) {
		c.once = true
	}
}

// Subscription is one registered observer of a stream.
type Subscription[T any] struct {
	id     string
	stream *Stream[T]
	fn     func(T)
	filter func(T) bool
	once   bool

	state atomic.Int32

	// mu serializes deliveries; lastSeq is the highest sequence number
	// delivered or deliberately dropped, which is what makes delivery
	// exactly-once across the subscribe/publish race.
	mu      sync.Mutex
	lastSeq uint64
}

func newSubscription[T any](s *Stream[T], fn func(T), cfg subscribeConfig[T]) *Subscription[T] {
	sub := &Subscription[T]{
		id:     uuid.New().String(),
		stream: s,
		fn:     fn,
		filter: cfg.filter,
		once:   cfg.once,
	}
	sub.state.Store(int32(StateActive))
	return sub
}

// ID returns the unique subscription identifier.
func (s *Subscription[T]) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Subscription[T]) State() State {
	return State(s.state.Load())
}

// IsActive reports whether the subscription is receiving values.
func (s *Subscription[T]) IsActive() bool {
	return s.State() == StateActive
}

// IsPaused reports whether the subscription is paused.
func (s *Subscription[T]) IsPaused() bool {
	return s.State() == StatePaused
}

// Pause stops delivery. Values published while paused are dropped for this
// subscription.
func (s *Subscription[T]) Pause() {
	s.state.CompareAndSwap(int32(StateActive), int32(StatePaused))
}

// Resume restarts delivery after a pause.
func (s *Subscription[T]) Resume() {
	s.state.CompareAndSwap(int32(StatePaused), int32(StateActive))
}

// Cancel permanently ends the subscription. It is safe to call from within
// the subscription's own callback.
func (s *Subscription[T]) Cancel() {
	s.state.Store(int32(StateCancelled))
	s.stream.remove(s.id)
}

// Sync delivers the stream's current value to an active subscription, even
// if that value was already delivered. It realigns a subscription that
// missed values while paused.
func (s *Subscription[T]) Sync() {
	if s.State() != StateActive {
		return
	}
	v, seq := s.stream.snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.lastSeq {
		return
	}
	s.lastSeq = seq
	s.fn(v)
}

// deliver hands one published value to the subscription. Sequence numbers
// older than what this subscription has already seen are discarded.
func (s *Subscription[T]) deliver(seq uint64, v T) {
	if s.State() == StateCancelled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastSeq {
		return
	}
	s.lastSeq = seq

	if State(s.state.Load()) != StateActive {
		return
	}
	if s.filter != nil && !s.filter(v) {
		return
	}

	s.fn(v)

	if s.once {
		s.state.Store(int32(StateCancelled))
		s.stream.remove(s.id)
	}
}
