package planner

import "errors"

var (
	ErrInvalidDuration = errors.New("estimated seconds must be positive")
)
