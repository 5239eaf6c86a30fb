package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/middleware"
	"github.com/glimte/statemate-go/serial"
	"github.com/glimte/statemate-go/state"
)

// Pipeline drives envelopes through middleware, reducer and emission
// policy on a serialized executor. It implements middleware.Runtime, so
// middleware dispatch back through the same admission rules as everyone
// else.
type Pipeline[S, A any] struct {
	container *state.Container[S]
	reducer   contracts.Reducer[S, A]
	chain     *middleware.Chain[S, A]
	policy    state.Policy[S]
	executor  serial.Executor
	logger    *slog.Logger
	maxDepth  int

	// depth counts synchronous dispatch nesting. It is only touched on
	// the executor, so it needs no synchronization.
	depth int

	stats pipelineStats
}

type pipelineStats struct {
	dispatched    atomic.Uint64
	inline        atomic.Uint64
	queued        atomic.Uint64
	processed     atomic.Uint64
	published     atomic.Uint64
	suppressed    atomic.Uint64
	afterReducers atomic.Uint64
	maxDepth      atomic.Uint64
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	Dispatched    uint64
	Inline        uint64
	Queued        uint64
	Processed     uint64
	Published     uint64
	Suppressed    uint64
	AfterReducers uint64
	MaxDepth      uint64
}

// New creates a pipeline over the given container, reducer and executor.
// The chain is bound to the pipeline's runtime before the first dispatch.
func New[S, A any](container *state.Container[S], reducer contracts.Reducer[S, A], executor serial.Executor, opts ...Option[S, A]) (*Pipeline[S, A], error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	if reducer == nil {
		return nil, contracts.ErrNilReducer
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}

	p := &Pipeline[S, A]{
		container: container,
		reducer:   reducer,
		chain:     middleware.NewChain[S, A](),
		policy:    state.Always[S](),
		executor:  executor,
		logger:    slog.Default(),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.chain.Bind(p)
	return p, nil
}

// State implements middleware.Runtime.
func (p *Pipeline[S, A]) State() S {
	return p.container.Value()
}

// Dispatch admits one action. It returns once the envelope is admitted: if
// ctx identifies the execution currently on the executor the envelope is
// processed inline, depth-first; otherwise it joins the FIFO queue.
// Dispatching after the executor has stopped is fatal.
func (p *Pipeline[S, A]) Dispatch(ctx context.Context, action A, source contracts.Source) {
	if ctx == nil {
		ctx = context.Background()
	}
	env := contracts.NewEnvelope(action, source)
	p.stats.dispatched.Add(1)

	if p.executor.RunningOn(ctx) {
		p.stats.inline.Add(1)
		p.process(ctx, env)
		return
	}

	p.stats.queued.Add(1)
	err := p.executor.Submit(ctx, func(taskCtx context.Context) {
		p.process(taskCtx, env)
	})
	if err != nil {
		panic(fmt.Sprintf("statemate: dispatch after close: %v (envelope %s, action %s, source %s)",
			err, env.ID, contracts.TypeName(env.Action), env.Source))
	}
}

// process runs one envelope's full cycle. It only ever executes on the
// serialized executor.
func (p *Pipeline[S, A]) process(ctx context.Context, env contracts.Envelope[A]) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		panic(fmt.Sprintf("statemate: synchronous dispatch depth exceeded %d (envelope %s, action %s, source %s)",
			p.maxDepth, env.ID, contracts.TypeName(env.Action), env.Source))
	}
	if d := uint64(p.depth); d > p.stats.maxDepth.Load() {
		p.stats.maxDepth.Store(d)
	}

	p.logger.Debug("processing envelope",
		"actionId", env.ID,
		"actionType", contracts.TypeName(env.Action),
		"depth", p.depth,
	)

	after := p.chain.Process(ctx, env, p)

	// Nested dispatches from the pre-phase have fully completed by here,
	// so this read folds their commits into the next application.
	candidate := p.reducer(env.Action, p.container.Value())

	published := false
	p.container.Update(func(current *S) bool {
		published = p.policy.Apply(current, candidate)
		return published
	})
	if published {
		p.stats.published.Add(1)
	} else {
		p.stats.suppressed.Add(1)
	}

	if after != nil {
		p.stats.afterReducers.Add(1)
		after(middleware.WithOutcome(ctx, middleware.Outcome{Published: published}))
	}
	p.stats.processed.Add(1)
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline[S, A]) Stats() Stats {
	return Stats{
		Dispatched:    p.stats.dispatched.Load(),
		Inline:        p.stats.inline.Load(),
		Queued:        p.stats.queued.Load(),
		Processed:     p.stats.processed.Load(),
		Published:     p.stats.published.Load(),
		Suppressed:    p.stats.suppressed.Load(),
		AfterReducers: p.stats.afterReducers.Load(),
		MaxDepth:      p.stats.maxDepth.Load(),
	}
}
