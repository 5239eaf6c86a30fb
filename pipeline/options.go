package pipeline

import (
	"log/slog"

	"github.com/glimte/statemate-go/middleware"
	"github.com/glimte/statemate-go/state"
)

// DefaultMaxDepth is the default limit on synchronous dispatch nesting.
const DefaultMaxDepth = 64

// Option configures a Pipeline.
type Option[S, A any] func(*Pipeline[S, A])

// WithChain sets the middleware chain. The default is an empty chain.
func WithChain[S, A any](chain *middleware.Chain[S, A]) Option[S, A] {
	return func(p *Pipeline[S, A]) {
		if chain != nil {
			p.chain = chain
		}
	}
}

// WithPolicy sets the emission policy. The default is state.Always.
func WithPolicy[S, A any](policy state.Policy[S]) Option[S, A] {
	return func(p *Pipeline[S, A]) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithLogger sets the logger.
func WithLogger[S, A any](logger *slog.Logger) Option[S, A] {
	return func(p *Pipeline[S, A]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxDepth sets the synchronous dispatch nesting limit. Exceeding the
// limit while processing is fatal.
func WithMaxDepth[S, A any](depth int) Option[S, A] {
	return func(p *Pipeline[S, A]) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}
