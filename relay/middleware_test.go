package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/middleware"
	"github.com/glimte/statemate-go/pipeline"
	"github.com/glimte/statemate-go/serial"
	"github.com/glimte/statemate-go/state"
)

type publishCall struct {
	key  string
	body []byte
}

// fakeSink records publishes. With gate set, Publish blocks until the gate
// closes; with err set, every publish fails.
type fakeSink struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
	gate  chan struct{}
}

func (s *fakeSink) Publish(_ context.Context, key string, body []byte) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, publishCall{key: key, body: append([]byte(nil), body...)})
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) snapshot() []publishCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]publishCall(nil), s.calls...)
}

func newRelayPipeline(t *testing.T, mw *Middleware[int, int]) *pipeline.Pipeline[int, int] {
	t.Helper()

	add := func(action, s int) int { return s + action }
	p, err := pipeline.New[int, int](state.NewContainer(0), add, serial.NewImmediate(),
		pipeline.WithChain(middleware.NewChain[int, int](mw)),
	)
	require.NoError(t, err)
	return p
}

func TestMiddlewareRelaysEnvelopes(t *testing.T) {
	sink := &fakeSink{}
	mw := NewMiddleware[int, int](sink, WithStoreName[int, int]("counter"))
	p := newRelayPipeline(t, mw)
	ctx := context.Background()

	p.Dispatch(ctx, 2, contracts.At("ui"))
	p.Dispatch(ctx, 3, contracts.At("api"))
	require.NoError(t, mw.Close(ctx))

	calls := sink.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "counter.int", calls[0].key)
	assert.Equal(t, "counter.int", calls[1].key)

	var env contracts.Envelope[int]
	require.NoError(t, json.Unmarshal(calls[0].body, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, 2, env.Action)
	assert.Equal(t, "ui", env.Source.Tag)
	assert.False(t, env.DispatchedAt.IsZero())

	stats := mw.Stats()
	assert.Equal(t, int64(2), stats.Published)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Dropped)
}

func TestMiddlewarePublishFailureDoesNotAffectDispatch(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker unreachable")}
	mw := NewMiddleware[int, int](sink)
	p := newRelayPipeline(t, mw)
	ctx := context.Background()

	p.Dispatch(ctx, 5, contracts.At("ui"))
	require.NoError(t, mw.Close(ctx))

	assert.Equal(t, 5, p.State())

	stats := mw.Stats()
	assert.Zero(t, stats.Published)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestMiddlewareDropsWhenQueueFull(t *testing.T) {
	gate := make(chan struct{})
	sink := &fakeSink{gate: gate}
	mw := NewMiddleware[int, int](sink, WithQueueSize[int, int](2))
	p := newRelayPipeline(t, mw)
	ctx := context.Background()

	// The sink is blocked, so dispatches outrun the worker. Every Dispatch
	// still returns immediately.
	for i := 0; i < 5; i++ {
		p.Dispatch(ctx, 1, contracts.At("ui"))
	}
	assert.Equal(t, 5, p.State())

	close(gate)
	require.NoError(t, mw.Close(ctx))

	stats := mw.Stats()
	assert.Equal(t, int64(5), stats.Published+stats.Dropped)
	assert.GreaterOrEqual(t, stats.Dropped, int64(2))
	assert.LessOrEqual(t, stats.Dropped, int64(3))
}

func TestMiddlewareRoutingKeyUsesActionTypeName(t *testing.T) {
	type noteAdded struct {
		Text string `json:"text"`
	}
	appendNote := func(action noteAdded, s []string) []string { return append(s, action.Text) }

	sink := &fakeSink{}
	mw := NewMiddleware[[]string, noteAdded](sink, WithStoreName[[]string, noteAdded]("notes"))
	p, err := pipeline.New[[]string, noteAdded](state.NewContainer[[]string](nil), appendNote, serial.NewImmediate(),
		pipeline.WithChain(middleware.NewChain[[]string, noteAdded](mw)),
	)
	require.NoError(t, err)
	ctx := context.Background()

	p.Dispatch(ctx, noteAdded{Text: "hi"}, contracts.At("ui"))
	require.NoError(t, mw.Close(ctx))

	calls := sink.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "notes.noteAdded", calls[0].key)
}

func TestMiddlewareCloseTimeout(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	sink := &fakeSink{gate: gate}
	mw := NewMiddleware[int, int](sink)
	p := newRelayPipeline(t, mw)

	p.Dispatch(context.Background(), 1, contracts.At("ui"))

	// Give the worker time to get stuck in the blocked sink.
	assert.Eventually(t, func() bool { return len(mw.queue) == 0 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mw.Close(ctx), context.DeadlineExceeded)
}

func TestMiddlewareName(t *testing.T) {
	mw := NewMiddleware[int, int](&fakeSink{})
	defer mw.Close(context.Background())

	assert.Equal(t, "RelayMiddleware", mw.Name())
}
