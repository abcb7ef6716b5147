package errs

import "errors"

// Domain sentinel errors mapped to HTTP codes in handlers.
var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrChannelClosed      = errors.New("channel already closed")
	ErrTooManySubscribers = errors.New("channel has maximum subscribers")
)
