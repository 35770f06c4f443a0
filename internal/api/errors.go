package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-rule codes the backend reports for expected failures. Detected by
// code first, so user-facing copy can change server-side without breaking
// clients.
const (
	CodeGroupFull      = "group_full"
	CodeLimitReached   = "limit_reached"
	CodeInviteExpired  = "invite_expired"
	CodeInviteDisabled = "invite_disabled"
)

// Error is a failed API call: the HTTP status plus the server-provided
// message and optional machine-readable code. Callers translate these into
// user feedback at the point of the originating call.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports an expired or missing session. Callers respond by
// redirecting to the login flow with a return URL.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsNotFound reports a missing resource.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsDomainRule reports a server-side domain-rule violation (group full,
// limit reached, invite expired/disabled). These get specific user-facing
// messages instead of the generic failure toast.
func IsDomainRule(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeGroupFull, CodeLimitReached, CodeInviteExpired, CodeInviteDisabled:
		return true
	}
	return false
}

// HasCode reports whether err is an API error carrying the given code.
func HasCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
