package serial

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is a unit of work executed on a serialized context. The context
// passed to the task carries the values of the submitting context but is
// detached from its cancellation: admitted tasks always run to completion.
type Task func(ctx context.Context)

// Executor runs tasks strictly one at a time.
type Executor interface {
	// Start makes the executor accept work.
	Start() error

	// Submit admits fn for execution. Admitted tasks run in admission
	// order and are never dropped. Returns ErrNotRunning once the
	// executor has stopped or before it has started.
	Submit(ctx context.Context, fn Task) error

	// RunningOn reports whether ctx identifies the task execution the
	// executor is performing right now.
	RunningOn(ctx context.Context) bool

	// Stop refuses new work, finishes every already-admitted task, then
	// shuts down. It returns early with ctx.Err() if ctx ends first; the
	// drain itself continues regardless.
	Stop(ctx context.Context) error
}

type queued struct {
	ctx context.Context
	fn  Task
}

// Loop is the production Executor: a single goroutine draining an unbounded
// FIFO queue. One Loop underpins one store, so every state transition of
// that store happens on this goroutine.
type Loop struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []queued
	started  bool
	stopping bool

	seq     atomic.Uint64
	current atomic.Uint64

	done chan struct{}
}

// NewLoop creates a stopped loop. Call Start before submitting work.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start launches the run goroutine.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return ErrAlreadyRunning
	}
	l.started = true
	go l.run()
	return nil
}

// Submit appends fn to the queue. The queue position is claimed while
// holding the queue lock, so concurrent submitters are admitted in a single
// total order.
func (l *Loop) Submit(ctx context.Context, fn Task) error {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started || l.stopping {
		return ErrNotRunning
	}
	l.queue = append(l.queue, queued{ctx: ctx, fn: fn})
	l.cond.Signal()
	return nil
}

// RunningOn reports whether ctx carries the token of the execution
// currently on the loop. A context captured from an earlier execution fails
// this check once that execution has finished.
func (l *Loop) RunningOn(ctx context.Context) bool {
	tok, ok := tokenFrom(ctx)
	return ok && tok == l.current.Load()
}

// Stop marks the loop as stopping and waits for the queue to drain. Already
// admitted tasks all run; only new submissions are refused. If ctx ends
// before the drain completes, Stop returns ctx.Err() while the loop keeps
// draining in the background.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.started || l.stopping {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.stopping = true
	l.cond.Signal()
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many admitted tasks have not started executing yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopping {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		next := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(next)
	}
}

// execute runs one task under a fresh execution token. Panics are not
// recovered: a panicking task is a programming error and takes the loop
// goroutine, and with it the process, down with a full stack trace.
func (l *Loop) execute(q queued) {
	tok := l.seq.Add(1)
	l.current.Store(tok)
	defer l.current.Store(0)

	q.fn(withToken(context.WithoutCancel(q.ctx), tok))
}
