package backoff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the circuit is open.
var ErrCircuitOpen = errors.New("backoff: circuit breaker is open")

// CircuitBreaker implements the circuit breaker pattern: consecutive
// failures open the circuit, a cooldown lets one probe through, and enough
// probe successes close it again.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time

	failureThreshold int
	successThreshold int
	timeout          time.Duration
	name             string
}

// CircuitBreakerOption configures the circuit breaker
type CircuitBreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets how many consecutive failures open the circuit
func WithFailureThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if threshold > 0 {
			cb.failureThreshold = threshold
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close the circuit
func WithSuccessThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if threshold > 0 {
			cb.successThreshold = threshold
		}
	}
}

// WithTimeout sets how long the circuit stays open before probing
func WithTimeout(timeout time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if timeout > 0 {
			cb.timeout = timeout
		}
	}
}

// WithName sets the circuit breaker name for identification
func WithName(name string) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.name = name
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(options ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		timeout:          30 * time.Second,
		name:             "default",
	}
	for _, opt := range options {
		opt(cb)
	}
	return cb
}

// Execute runs fn with circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	if err != nil {
		return fmt.Errorf("circuit breaker %s: %w", cb.name, err)
	}
	return nil
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		if time.Since(cb.lastFailureTime) < cb.timeout {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.successes = 0
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = StateClosed
			cb.failures = 0
		}
	case StateClosed:
		cb.failures = 0
	}
}
