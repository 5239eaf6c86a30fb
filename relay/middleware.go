package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/middleware"
)

// Stats is a snapshot of relay counters.
type Stats struct {
	Published int64
	Failed    int64
	Dropped   int64
}

// Middleware exports every dispatched envelope to a Sink. The after-reducer
// only enqueues; a single background worker serializes and publishes, so the
// dispatch pipeline never waits on the broker. When the queue is full the
// envelope is dropped and counted. Publish failures are logged and counted,
// never fed back into dispatch. Delivery order across actions follows the
// queue; an export exists for observability, not replication.
type Middleware[S, A any] struct {
	sink    Sink
	store   string
	logger  *slog.Logger
	timeout time.Duration

	queue     chan contracts.Envelope[A]
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// MiddlewareOption configures the relay middleware.
type MiddlewareOption[S, A any] func(*Middleware[S, A])

// WithStoreName sets the routing key prefix identifying the store.
func WithStoreName[S, A any](name string) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if name != "" {
			m.store = name
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

// WithQueueSize sets how many envelopes may wait for the worker before new
// ones are dropped.
func WithQueueSize[S, A any](size int) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if size > 0 {
			m.queue = make(chan contracts.Envelope[A], size)
		}
	}
}

// WithPublishTimeout bounds each publish attempt, confirmation included.
func WithPublishTimeout[S, A any](timeout time.Duration) MiddlewareOption[S, A] {
	return func(m *Middleware[S, A]) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// NewMiddleware creates a relay middleware publishing to sink and starts its
// worker. Close releases the worker.
func NewMiddleware[S, A any](sink Sink, opts ...MiddlewareOption[S, A]) *Middleware[S, A] {
	m := &Middleware[S, A]{
		sink:    sink,
		store:   "statemate",
		logger:  slog.Default(),
		timeout: 5 * time.Second,
		queue:   make(chan contracts.Envelope[A], 256),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run()
	return m
}

// Process implements middleware.Middleware.
func (m *Middleware[S, A]) Process(_ context.Context, env contracts.Envelope[A], _ middleware.Runtime[S, A]) middleware.AfterReducer {
	return func(context.Context) {
		select {
		case m.queue <- env:
		default:
			m.dropped.Add(1)
			m.logger.Warn("relay queue full, dropping envelope",
				"actionId", env.ID,
				"actionType", contracts.TypeName(env.Action),
			)
		}
	}
}

// Name implements middleware.Middleware.
func (m *Middleware[S, A]) Name() string {
	return "RelayMiddleware"
}

// Stats returns a snapshot of the relay counters.
func (m *Middleware[S, A]) Stats() Stats {
	return Stats{
		Published: m.published.Load(),
		Failed:    m.failed.Load(),
		Dropped:   m.dropped.Load(),
	}
}

// Close stops the worker after relaying what is already queued. Envelopes
// enqueued after Close are not relayed; close the middleware only once the
// store has stopped dispatching.
func (m *Middleware[S, A]) Close(ctx context.Context) error {
	m.closeOnce.Do(func() { close(m.quit) })
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Middleware[S, A]) run() {
	defer close(m.done)
	for {
		select {
		case env := <-m.queue:
			m.relay(env)
		case <-m.quit:
			for {
				select {
				case env := <-m.queue:
					m.relay(env)
				default:
					return
				}
			}
		}
	}
}

func (m *Middleware[S, A]) relay(env contracts.Envelope[A]) {
	body, err := json.Marshal(env)
	if err != nil {
		m.failed.Add(1)
		m.logger.Error("failed to encode envelope",
			"actionId", env.ID,
			"actionType", contracts.TypeName(env.Action),
			"error", err,
		)
		return
	}

	key := m.store + "." + contracts.TypeName(env.Action)
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.sink.Publish(ctx, key, body); err != nil {
		m.failed.Add(1)
		m.logger.Error("failed to relay envelope",
			"actionId", env.ID,
			"routingKey", key,
			"error", err,
		)
		return
	}
	m.published.Add(1)
}
