package group

import "errors"

var (
	ErrSessionClosed     = errors.New("collaboration session is closed")
	ErrGroupNotLoaded    = errors.New("group has not been loaded")
	ErrGroupFull         = errors.New("group is at its member limit")
	ErrNotAllowed        = errors.New("only admins and moderators can manage join requests")
	ErrLeaveNotConfirmed = errors.New("leaving a group requires confirmation")
)
