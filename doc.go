// Package statemate is a unidirectional state-management engine: one state
// container per store, a pure reducer, a two-phase middleware chain, and a
// dispatch pipeline serialized onto a single loop goroutine.
//
// A Store is created with an initial state and a reducer, then fed actions
// through Dispatch from any goroutine. Each action runs exactly one reducer
// application on the loop; an emission policy decides whether the result is
// committed and published to the store's replay-last stream. Middleware sees
// every action before the reducer and again after the emission decision, and
// may dispatch follow-up actions synchronously (depth-first) or from its own
// goroutines.
//
//	store, err := statemate.New(0, func(action, count int) int {
//		return count + action
//	})
//	if err != nil {
//		...
//	}
//	defer store.Close(context.Background())
//
//	store.Subscribe(func(count int) { fmt.Println("count:", count) })
//	store.Dispatch(ctx, 3, contracts.Here("ui"))
package statemate
