package relay

import "errors"

// ErrSinkClosed is returned by Publish after the sink has been closed.
var ErrSinkClosed = errors.New("relay: sink is closed")
