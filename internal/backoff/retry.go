package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy decides whether a failed attempt should be retried and how long
// to wait before the next one.
type Policy interface {
	// ShouldRetry determines if a retry should be attempted
	ShouldRetry(attempt int, err error) (bool, time.Duration)
	// MaxRetries returns the maximum number of retries
	MaxRetries() int
	// NextDelay calculates the next retry delay
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements an exponential backoff retry policy
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
	Jitter          bool
}

// NewExponentialBackoff creates a new exponential backoff policy
func NewExponentialBackoff(initial, max time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
		MaxAttempts:     maxRetries,
		Jitter:          true,
	}
}

// ShouldRetry implements Policy
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= e.MaxAttempts {
		return false, 0
	}
	if !isRetryable(err) {
		return false, 0
	}
	return true, e.NextDelay(attempt)
}

// MaxRetries implements Policy
func (e *ExponentialBackoff) MaxRetries() int {
	return e.MaxAttempts
}

// NextDelay implements Policy
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.InitialInterval) * math.Pow(e.Multiplier, float64(attempt))

	if delay > float64(e.MaxInterval) {
		delay = float64(e.MaxInterval)
	}

	// ±15% jitter
	if e.Jitter {
		jitter := rand.Float64() * 0.3 * delay
		delay = delay + jitter - (0.15 * delay)
	}

	return time.Duration(delay)
}

// FixedDelay implements a fixed delay retry policy
type FixedDelay struct {
	Delay       time.Duration
	MaxAttempts int
}

// NewFixedDelay creates a new fixed delay policy
func NewFixedDelay(delay time.Duration, maxRetries int) *FixedDelay {
	return &FixedDelay{
		Delay:       delay,
		MaxAttempts: maxRetries,
	}
}

// ShouldRetry implements Policy
func (f *FixedDelay) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= f.MaxAttempts {
		return false, 0
	}
	if !isRetryable(err) {
		return false, 0
	}
	return true, f.Delay
}

// MaxRetries implements Policy
func (f *FixedDelay) MaxRetries() int {
	return f.MaxAttempts
}

// NextDelay implements Policy
func (f *FixedDelay) NextDelay(int) time.Duration {
	return f.Delay
}

// isRetryable reports whether an error is worth retrying. Context
// cancellation and expiry are terminal.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
