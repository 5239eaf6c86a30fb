// Package pipeline implements the dispatch pipeline: the only path by
// which actions reach a reducer and state is allowed to change.
//
// A pipeline wraps each dispatched action in an envelope and processes it
// on a serialized executor: middleware pre-phases, then exactly one reducer
// application, then the emission policy's commit/publish decision, then the
// middleware post-phases. Dispatches made from within that processing are
// recognized by their execution token and processed inline, depth-first;
// all other dispatches are admitted to the executor's FIFO queue.
//
// Failures on this path are programming errors: a panicking reducer or
// middleware, a dispatch after the store closed, and runaway synchronous
// dispatch recursion all crash rather than being swallowed.
package pipeline
