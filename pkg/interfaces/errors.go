package interfaces

import "errors"

// Common interface errors used across components.
var (
	ErrKeyNotFound = errors.New("session key not found")
	ErrStoreClosed = errors.New("session store is closed")
)
