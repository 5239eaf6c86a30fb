package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/statemate-go/contracts"
)

// LoggingMiddleware logs every envelope before and after reduction.
type LoggingMiddleware[S, A any] struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware[S, A any](logger *slog.Logger) *LoggingMiddleware[S, A] {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingMiddleware[S, A]{logger: logger}
}

// Process implements Middleware.
func (m *LoggingMiddleware[S, A]) Process(ctx context.Context, env contracts.Envelope[A], _ Runtime[S, A]) AfterReducer {
	start := time.Now()

	m.logger.Info("dispatching action",
		"actionId", env.ID,
		"actionType", contracts.TypeName(env.Action),
		"source", env.Source.String(),
	)

	return func(ctx context.Context) {
		m.logger.Info("action reduced",
			"actionId", env.ID,
			"actionType", contracts.TypeName(env.Action),
			"duration", time.Since(start),
		)
	}
}

// Name implements Middleware.
func (m *LoggingMiddleware[S, A]) Name() string {
	return "LoggingMiddleware"
}
