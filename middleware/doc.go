// Package middleware provides the two-phase middleware model of the
// statemate engine.
//
// A middleware observes every dispatched envelope in two phases. Its
// Process method runs before the reducer and may return an AfterReducer,
// which runs exactly once after the reduction decision is final. Middleware
// cannot veto, modify or retry a reduction; it brackets one and may
// dispatch further actions of its own.
//
// A Chain composes middleware in a fixed order: pre-phases run in declared
// order, and the collected after-reducers run in that same declared order
// once the state commit is decided. The context an AfterReducer runs with
// carries the reduction's Outcome.
package middleware
