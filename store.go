package statemate

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/middleware"
	"github.com/glimte/statemate-go/pipeline"
	"github.com/glimte/statemate-go/serial"
	"github.com/glimte/statemate-go/state"
	"github.com/glimte/statemate-go/stream"
)

// Store is the façade over a state container, middleware chain, and
// serialized dispatch pipeline. All mutation happens on the dispatch loop;
// any goroutine may dispatch, read State, or subscribe to the stream.
type Store[S, A any] struct {
	name      string
	container *state.Container[S]
	pipeline  *pipeline.Pipeline[S, A]
	executor  serial.Executor
	ownsLoop  bool
	logger    *slog.Logger
	closed    atomic.Bool
}

// storeConfig holds store configuration.
type storeConfig[S, A any] struct {
	name        string
	logger      *slog.Logger
	middlewares []middleware.Middleware[S, A]
	policy      state.Policy[S]
	executor    serial.Executor
	maxDepth    int
}

// StoreOption configures a store.
type StoreOption[S, A any] func(*storeConfig[S, A])

// WithName sets the store name, used in log records.
func WithName[S, A any](name string) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithLogger sets the logger for the store and its pipeline.
func WithLogger[S, A any](logger *slog.Logger) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMiddleware appends middleware to the chain in declared order. The
// chain is fixed once the store is built.
func WithMiddleware[S, A any](mws ...middleware.Middleware[S, A]) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		cfg.middlewares = append(cfg.middlewares, mws...)
	}
}

// WithEmission sets the emission policy deciding, per reduction, whether the
// result is committed and published. Default is state.Always.
func WithEmission[S, A any](policy state.Policy[S]) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithExecutor injects the executor to serialize on instead of an owned
// loop. The caller keeps its lifecycle: Close will not stop it.
func WithExecutor[S, A any](e serial.Executor) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		if e != nil {
			cfg.executor = e
		}
	}
}

// WithMaxDepth sets the synchronous dispatch depth limit.
func WithMaxDepth[S, A any](depth int) StoreOption[S, A] {
	return func(cfg *storeConfig[S, A]) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// New creates a store holding initial and reducing it with reducer. Unless
// an executor is injected, the store starts and owns a dispatch loop.
func New[S, A any](initial S, reducer contracts.Reducer[S, A], opts ...StoreOption[S, A]) (*Store[S, A], error) {
	cfg := &storeConfig[S, A]{
		name:     "store",
		logger:   slog.Default(),
		policy:   state.Always[S](),
		maxDepth: pipeline.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	executor := cfg.executor
	ownsLoop := false
	if executor == nil {
		executor = serial.NewLoop()
		ownsLoop = true
		if err := executor.Start(); err != nil {
			return nil, fmt.Errorf("start dispatch loop: %w", err)
		}
	}

	container := state.NewContainer(initial)
	p, err := pipeline.New(container, reducer, executor,
		pipeline.WithChain(middleware.NewChain(cfg.middlewares...)),
		pipeline.WithPolicy[S, A](cfg.policy),
		pipeline.WithLogger[S, A](cfg.logger.With("store", cfg.name)),
		pipeline.WithMaxDepth[S, A](cfg.maxDepth),
	)
	if err != nil {
		if ownsLoop {
			_ = executor.Stop(context.Background())
		}
		return nil, err
	}

	s := &Store[S, A]{
		name:      cfg.name,
		container: container,
		pipeline:  p,
		executor:  executor,
		ownsLoop:  ownsLoop,
		logger:    cfg.logger,
	}
	s.logger.Debug("store created", "store", s.name, "emission", cfg.policy.Name())
	return s, nil
}

// Dispatch admits an action into the store's pipeline and returns once it is
// admitted, not once it is reduced. Safe from any goroutine; dispatches made
// on the loop itself (middleware re-entry) process inline, depth-first.
// Dispatching on a closed store panics.
func (s *Store[S, A]) Dispatch(ctx context.Context, action A, source contracts.Source) {
	if s.closed.Load() {
		panic(fmt.Sprintf("statemate: dispatch on closed store %s (action %s, source %s)",
			s.name, contracts.TypeName(action), source))
	}
	s.pipeline.Dispatch(ctx, action, source)
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	return s.container.Value()
}

// Stream returns the store's replay-last state stream.
func (s *Store[S, A]) Stream() *stream.Stream[S] {
	return s.container.Stream()
}

// Subscribe registers fn on the state stream. The current value is replayed
// into fn before any later emission reaches it.
func (s *Store[S, A]) Subscribe(fn func(S), opts ...stream.SubscribeOption[S]) (*stream.Subscription[S], error) {
	return s.container.Stream().Subscribe(fn, opts...)
}

// Wait blocks until the published state satisfies pred or ctx expires.
func (s *Store[S, A]) Wait(ctx context.Context, pred func(S) bool) (S, error) {
	return stream.Wait(ctx, s.container.Stream(), pred)
}

// Stats returns the pipeline's dispatch counters.
func (s *Store[S, A]) Stats() pipeline.Stats {
	return s.pipeline.Stats()
}

// Name returns the store name.
func (s *Store[S, A]) Name() string {
	return s.name
}

// Close stops the dispatch loop, draining actions already admitted, then
// terminates the state stream and cancels its subscriptions. Injected
// executors are left running. Close is idempotent; only the first call's
// error is meaningful.
func (s *Store[S, A]) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}

	var err error
	if s.ownsLoop {
		err = s.executor.Stop(ctx)
	}
	s.container.Close()
	s.logger.Debug("store closed", "store", s.name)
	return err
}
