package pipeline

import "errors"

var (
	// ErrNilContainer indicates a pipeline was constructed without a
	// state container.
	ErrNilContainer = errors.New("pipeline: container must not be nil")

	// ErrNilExecutor indicates a pipeline was constructed without an
	// executor.
	ErrNilExecutor = errors.New("pipeline: executor must not be nil")
)
