package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/middleware"
)

// Middleware journals every envelope that passes through a store: the
// pre-phase captures the action and the before-state, the post-phase
// captures the after-state, the emission outcome and the bracket duration.
//
// Recording failures are logged and never affect the dispatch.
type Middleware[S, A any] struct {
	journal Journal
	states  Codec[S]
	actions Codec[A]
	logger  *slog.Logger
}

// MiddlewareOption configures the journal middleware.
type MiddlewareOption[S, A any] func(*Middleware[S, A])

// WithStateCodec replaces the default JSON state codec.
func WithStateCodec[S, A any](c Codec[S]) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if c != nil {
			m.states = c
		}
	}
}

// WithActionCodec replaces the default JSON action codec.
func WithActionCodec[S, A any](c Codec[A]) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if c != nil {
			m.actions = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger[S, A any](logger *slog.Logger) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMiddleware creates a journal middleware writing to j.
func NewMiddleware[S, A any](j Journal, opts ...MiddlewareOption[S, A]) *Middleware[S, A] {
	m := &Middleware[S, A]{
		journal: j,
		states:  JSONCodec[S]{},
		actions: JSONCodec[A]{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Process implements middleware.Middleware.
func (m *Middleware[S, A]) Process(ctx context.Context, env contracts.Envelope[A], rt middleware.Runtime[S, A]) middleware.AfterReducer {
	start := time.Now()

	before, err := m.states.Encode(rt.State())
	if err != nil {
		m.logger.Error("failed to encode before state",
			"actionId", env.ID,
			"error", err,
		)
	}
	action, err := m.actions.Encode(env.Action)
	if err != nil {
		m.logger.Error("failed to encode action",
			"actionId", env.ID,
			"actionType", contracts.TypeName(env.Action),
			"error", err,
		)
	}

	return func(ctx context.Context) {
		after, err := m.states.Encode(rt.State())
		if err != nil {
			m.logger.Error("failed to encode after state",
				"actionId", env.ID,
				"error", err,
			)
		}

		entry := &Entry{
			ID:          env.ID,
			ActionType:  contracts.TypeName(env.Action),
			Source:      env.Source.Tag,
			RecordedAt:  env.DispatchedAt,
			Action:      action,
			BeforeState: before,
			AfterState:  after,
			Duration:    time.Since(start),
		}
		if o, ok := middleware.OutcomeFrom(ctx); ok {
			entry.Published = o.Published
		}

		if err := m.journal.Record(ctx, entry); err != nil {
			m.logger.Error("failed to record journal entry",
				"actionId", env.ID,
				"actionType", entry.ActionType,
				"error", err,
			)
		}
	}
}

// Name implements middleware.Middleware.
func (m *Middleware[S, A]) Name() string {
	return "JournalMiddleware"
}
