package types

import "errors"

// Shared validation errors used across client components.
var (
	ErrInvalidUserID      = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidGroupID     = errors.New("group ID cannot be empty")
	ErrInvalidRole        = errors.New("invalid member role")
	ErrInvalidPrivacy     = errors.New("invalid group privacy mode")
	ErrInvalidMessageBody = errors.New("message must be 1-4096 characters")
)
