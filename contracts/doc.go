// Package contracts provides the core types shared by every part of the
// statemate engine.
//
// This package defines the vocabulary that flows through a store:
//   - Envelope: a single dispatched action with identity and origin metadata
//   - Source: advisory description of where a dispatch came from
//   - Reducer: the pure transition function from (action, state) to state
//   - Dispatcher: the capability to admit actions into a pipeline
//
// Everything here is deliberately free of engine machinery so that
// middleware, journals and transports can depend on it without pulling in
// the pipeline itself.
package contracts
