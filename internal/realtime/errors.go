package realtime

import "errors"

var (
	ErrAlreadyConnected = errors.New("channel is already connected")
	ErrChannelClosed    = errors.New("channel is closed")
	ErrWriteTimeout     = errors.New("write timed out")
	ErrInvalidEvent     = errors.New("invalid event payload")
)
