package middleware

import (
	"context"

	"github.com/glimte/statemate-go/contracts"
)

// Chain composes middleware into one. Its pre-phases run in the order they
// were added; the after-reducers they return run in that same order. The
// set of middleware is fixed once the chain is handed to a store.
type Chain[S, A any] struct {
	middlewares []Middleware[S, A]
}

// NewChain creates a chain of the given middleware.
func NewChain[S, A any](middlewares ...Middleware[S, A]) *Chain[S, A] {
	return &Chain[S, A]{middlewares: middlewares}
}

// Add appends a middleware to the chain.
func (c *Chain[S, A]) Add(m Middleware[S, A]) *Chain[S, A] {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Len reports the number of middleware in the chain.
func (c *Chain[S, A]) Len() int {
	return len(c.middlewares)
}

// Names lists the middleware names in chain order.
func (c *Chain[S, A]) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Name implements Middleware.
func (c *Chain[S, A]) Name() string {
	return "Chain"
}

// Process runs every pre-phase in order and returns a single AfterReducer
// that runs the collected post-phases in that same order. It returns nil
// when no middleware produced a post-phase.
func (c *Chain[S, A]) Process(ctx context.Context, env contracts.Envelope[A], rt Runtime[S, A]) AfterReducer {
	var afters []AfterReducer
	for _, m := range c.middlewares {
		if after := m.Process(ctx, env, rt); after != nil {
			afters = append(afters, after)
		}
	}
	if len(afters) == 0 {
		return nil
	}
	return func(ctx context.Context) {
		for _, after := range afters {
			after(ctx)
		}
	}
}

// Bind forwards the runtime to every middleware that implements Binder.
func (c *Chain[S, A]) Bind(rt Runtime[S, A]) {
	for _, m := range c.middlewares {
		if b, ok := m.(Binder[S, A]); ok {
			b.Bind(rt)
		}
	}
}
