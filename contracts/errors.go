package contracts

import "errors"

var (
	// ErrStoreClosed indicates an operation that needs a live store was
	// attempted after Close completed.
	ErrStoreClosed = errors.New("statemate: store is closed")

	// ErrNilReducer indicates a store was constructed without a reducer.
	ErrNilReducer = errors.New("statemate: reducer must not be nil")
)
