package session

import "errors"

var (
	ErrNilProfile = errors.New("profile cannot be nil")
)
