package contracts

import "context"

// Reducer computes the next state from an action and the current state. It
// must be pure: no I/O, no mutation of shared structures, no dependence on
// anything but its arguments. The engine never runs a reducer concurrently
// with itself, so a reducer needs no internal synchronization.
type Reducer[S, A any] func(action A, state S) S

// Compose folds reducers left to right: each reducer receives the state
// produced by the previous one for the same action. Composing zero reducers
// yields a reducer that returns its input state unchanged.
func Compose[S, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	return func(action A, state S) S {
		for _, r := range reducers {
			state = r(action, state)
		}
		return state
	}
}

// Dispatcher admits actions into a store's processing pipeline. Dispatch is
// fire-and-forget: it returns once the action is admitted, not once it has
// been reduced. Implementations decide whether to process inline or enqueue.
type Dispatcher[A any] interface {
	Dispatch(ctx context.Context, action A, source Source)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc[A any] func(ctx context.Context, action A, source Source)

// Dispatch calls f.
func (f DispatcherFunc[A]) Dispatch(ctx context.Context, action A, source Source) {
	f(ctx, action, source)
}
