package stream

import "errors"

var (
	// ErrClosed is returned when subscribing to or waiting on a stream
	// that has been closed.
	ErrClosed = errors.New("stream: closed")

	// ErrNilHandler is returned by Subscribe when no callback is given.
	ErrNilHandler = errors.New("stream: handler must not be nil")
)
