package serial

import (
	"context"
	"sync/atomic"
)

// Immediate is a deterministic Executor for tests: Submit runs the task
// inline on the calling goroutine before returning. Token handling matches
// Loop, so reentrancy checks behave the same way under test as in
// production.
type Immediate struct {
	stopped atomic.Bool
	seq     atomic.Uint64
	current atomic.Uint64
}

// NewImmediate creates an Immediate executor, ready for use.
func NewImmediate() *Immediate {
	return &Immediate{}
}

// Start is a no-op; an Immediate executor is always ready.
func (e *Immediate) Start() error {
	return nil
}

// Submit executes fn inline and returns after it completes. Nested Submit
// calls from within a task run depth-first.
func (e *Immediate) Submit(ctx context.Context, fn Task) error {
	if e.stopped.Load() {
		return ErrNotRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tok := e.seq.Add(1)
	prev := e.current.Swap(tok)
	defer e.current.Store(prev)

	fn(withToken(context.WithoutCancel(ctx), tok))
	return nil
}

// RunningOn reports whether ctx carries the token of the innermost Submit
// currently executing.
func (e *Immediate) RunningOn(ctx context.Context) bool {
	tok, ok := tokenFrom(ctx)
	return ok && tok == e.current.Load()
}

// Stop refuses further submissions. There is nothing to drain.
func (e *Immediate) Stop(context.Context) error {
	if e.stopped.Swap(true) {
		return ErrNotRunning
	}
	return nil
}
