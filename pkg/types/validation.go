package types

import (
	"regexp"
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks if a user ID meets format requirements: 1-50
// characters, alphanumeric plus underscore/hyphen.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// IsValidRole checks if the role is one of the closed member-role set.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	default:
		return false
	}
}

// CanManageRequests reports whether a role is allowed to approve or reject
// join requests.
func CanManageRequests(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// IsValidPrivacy checks if the privacy mode is one of the allowed modes.
func IsValidPrivacy(privacy string) bool {
	switch privacy {
	case PrivacyPublic, PrivacyPrivate, PrivacyInviteOnly:
		return true
	default:
		return false
	}
}

// Validate ensures a chat message is sendable: attributed to a valid user
// and non-empty, within the 4KB message limit.
func (m *ChatMessage) Validate() error {
	if !IsValidUserID(m.UserID) {
		return ErrInvalidUserID
	}
	if m.GroupID == "" {
		return ErrInvalidGroupID
	}
	if len(m.Message) < 1 || len(m.Message) > 4096 {
		return ErrInvalidMessageBody
	}
	return nil
}
