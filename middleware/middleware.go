package middleware

import (
	"context"

	"github.com/glimte/statemate-go/contracts"
)

// AfterReducer is the deferred post-phase of a middleware: a unit of work
// that runs exactly once after the reduction decision for an envelope is
// final. A nil AfterReducer means the middleware has no post-phase for this
// envelope.
type AfterReducer func(ctx context.Context)

// Runtime is the capability set handed to middleware: dispatch further
// actions back into the store and read the current state. It is bound at
// store construction and stays valid for the store's lifetime.
type Runtime[S, A any] interface {
	contracts.Dispatcher[A]

	// State returns the current canonical state.
	State() S
}

// Middleware processes envelopes around the reducer.
type Middleware[S, A any] interface {
	// Process runs before the reducer. Dispatching synchronously from
	// within Process processes the nested envelope to completion before
	// Process resumes.
	Process(ctx context.Context, env contracts.Envelope[A], rt Runtime[S, A]) AfterReducer

	// Name returns the middleware name for logging and debugging.
	Name() string
}

// Binder is implemented by middleware that want the runtime once, at store
// construction, rather than per envelope.
type Binder[S, A any] interface {
	Bind(rt Runtime[S, A])
}

// Outcome describes how an envelope's reduction concluded. The pipeline
// attaches it to the context the post-phase runs with.
type Outcome struct {
	// Published reports whether the commit was published to observers.
	Published bool
}

type outcomeKey struct{}

// WithOutcome attaches o to ctx.
func WithOutcome(ctx context.Context, o Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, o)
}

// OutcomeFrom extracts the reduction outcome, if ctx carries one. Contexts
// handed to pre-phases never do.
func OutcomeFrom(ctx context.Context) (Outcome, bool) {
	if ctx == nil {
		return Outcome{}, false
	}
	o, ok := ctx.Value(outcomeKey{}).(Outcome)
	return o, ok
}

// Func is a function adapter for Middleware.
type Func[S, A any] struct {
	name string
	fn   func(ctx context.Context, env contracts.Envelope[A], rt Runtime[S, A]) AfterReducer
}

// NewFunc creates a new function-based middleware.
func NewFunc[S, A any](name string, fn func(ctx context.Context, env contracts.Envelope[A], rt Runtime[S, A]) AfterReducer) *Func[S, A] {
	return &Func[S, A]{name: name, fn: fn}
}

// Process implements Middleware.
func (f *Func[S, A]) Process(ctx context.Context, env contracts.Envelope[A], rt Runtime[S, A]) AfterReducer {
	return f.fn(ctx, env, rt)
}

// Name implements Middleware.
func (f *Func[S, A]) Name() string {
	return f.name
}
