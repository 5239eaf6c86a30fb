package journal

import (
	"context"
	"encoding/json"
	"strconv"
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

type counterState struct {
	Count int `json:"count"`
}

func addReducer(action int, s counterState) counterState {
	s.Count += action
	return s
}

func newJournaledPipeline(t *testing.T, mem *Memory, opts ...pipeline.Option[counterState, int]) *pipeline.Pipeline[counterState, int] {
	t.Helper()

	mw := NewMiddleware[counterState, int](mem)
	opts = append([]pipeline.Option[counterState, int]{
		pipeline.WithChain(middleware.NewChain[counterState, int](mw)),
	}, opts...)

	p, err := pipeline.New[counterState, int](state.NewContainer(counterState{}), addReducer, serial.NewImmediate(), opts...)
	require.NoError(t, err)
	return p
}

func TestMiddlewareRecordsReductions(t *testing.T) {
	mem := NewMemory()
	p := newJournaledPipeline(t, mem)
	ctx := context.Background()

	p.Dispatch(ctx, 2, contracts.At("ui"))
	p.Dispatch(ctx, 3, contracts.At("api"))

	entries, err := mem.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, int64(1), first.Seq)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "int", first.ActionType)
	assert.Equal(t, "ui", first.Source)
	assert.False(t, first.RecordedAt.IsZero())
	assert.JSONEq(t, `2`, string(first.Action))
	assert.JSONEq(t, `{"count":0}`, string(first.BeforeState))
	assert.JSONEq(t, `{"count":2}`, string(first.AfterState))
	assert.True(t, first.Published)
	assert.Greater(t, first.Duration, time.Duration(0))

	second := entries[1]
	assert.Equal(t, "api", second.Source)
	assert.JSONEq(t, `{"count":2}`, string(second.BeforeState))
	assert.JSONEq(t, `{"count":5}`, string(second.AfterState))
}

func TestMiddlewarePublishedTracksEmission(t *testing.T) {
	mem := NewMemory()
	p := newJournaledPipeline(t, mem, pipeline.WithPolicy[counterState, int](state.Distinct[counterState]()))
	ctx := context.Background()

	p.Dispatch(ctx, 2, contracts.At("ui"))
	p.Dispatch(ctx, 0, contracts.At("ui"))

	entries, err := mem.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Published)
	assert.False(t, entries[1].Published)
	assert.JSONEq(t, `{"count":2}`, string(entries[1].AfterState))
}

func TestMiddlewareCustomStateCodec(t *testing.T) {
	mem := NewMemory()
	mw := NewMiddleware[counterState, int](mem, WithStateCodec[counterState, int](countCodec{}))

	p, err := pipeline.New[counterState, int](state.NewContainer(counterState{}), addReducer, serial.NewImmediate(),
		pipeline.WithChain(middleware.NewChain[counterState, int](mw)),
	)
	require.NoError(t, err)

	ctx := context.Background()
	p.Dispatch(ctx, 7, contracts.At("ui"))

	entries, err := mem.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0", string(entries[0].BeforeState))
	assert.Equal(t, "7", string(entries[0].AfterState))
}

func TestMiddlewareRecordsDespiteEncodeFailure(t *testing.T) {
	type opaque struct {
		Ch chan int
		N  int
	}
	bump := func(action int, s opaque) opaque {
		s.N += action
		return s
	}

	mem := NewMemory()
	mw := NewMiddleware[opaque, int](mem)
	p, err := pipeline.New[opaque, int](state.NewContainer(opaque{}), bump, serial.NewImmediate(),
		pipeline.WithChain(middleware.NewChain[opaque, int](mw)),
	)
	require.NoError(t, err)

	ctx := context.Background()
	p.Dispatch(ctx, 1, contracts.At("ui"))

	entries, err := mem.Entries(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "int", entries[0].ActionType)
	assert.Empty(t, entries[0].BeforeState)
	assert.Empty(t, entries[0].AfterState)
}

func TestMiddlewareName(t *testing.T) {
	mw := NewMiddleware[counterState, int](NewMemory())
	assert.Equal(t, "JournalMiddleware", mw.Name())
}

// countCodec journals just the counter value.
type countCodec struct{}

func (countCodec) Encode(v counterState) (json.RawMessage, error) {
	return json.RawMessage(strconv.Itoa(v.Count)), nil
}

func (countCodec) Decode(data json.RawMessage) (counterState, error) {
	n, err := strconv.Atoi(string(data))
	return counterState{Count: n}, err
}
