package serial

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the executor is already
	// running.
	ErrAlreadyRunning = errors.New("serial: already running")

	// ErrNotRunning is returned by Submit and Stop when the executor has
	// not been started or has already stopped.
	ErrNotRunning = errors.New("serial: not running")
)
