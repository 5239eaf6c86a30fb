package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(WithFailureThreshold(2), WithName("relay"))

	boom := errors.New("boom")
	fail := func() error { return boom }

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, cb.State())

	err = cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateOpen, cb.State())

	err = cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen, "open circuit refuses work without calling fn")
}

func TestCircuitBreakerRecovers(t *testing.T) {
	cb := NewCircuitBreaker(
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
	)

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("boom") }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// First probe moves the breaker to half-open.
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(WithFailureThreshold(1), WithTimeout(10*time.Millisecond))

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("boom") }))
	time.Sleep(15 * time.Millisecond)

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("still down") }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(WithFailureThreshold(2))

	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("boom") }))
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	require.Error(t, cb.Execute(context.Background(), func() error { return errors.New("boom") }))

	assert.Equal(t, StateClosed, cb.State(), "non-consecutive failures do not open the circuit")
}

func TestCircuitBreakerContextCancelled(t *testing.T) {
	cb := NewCircuitBreaker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
