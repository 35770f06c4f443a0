package interfaces

import (
	"context"

	"studybrain/pkg/types"
)

// GroupAPI is the slice of the REST client the collaboration session
// depends on. The full client in internal/api implements it; tests use
// hand-rolled mocks.
//
// Every call is one request with one outcome: no retry, no caching. The
// durable write path is always the API; the realtime channel only fans the
// same action out live.
type GroupAPI interface {
	// GetGroup fetches a group fresh, including membership and pending join
	// requests as seen by userID.
	GetGroup(ctx context.Context, groupID, userID string) (*types.Group, error)

	// JoinGroup asks to join directly (public groups) or files a join
	// request (invite-only groups).
	JoinGroup(ctx context.Context, groupID, userID, userName string) (*types.JoinResult, error)

	// JoinByInviteToken redeems an invite token for membership.
	JoinByInviteToken(ctx context.Context, token, userID, userName string) (*types.JoinResult, error)

	// LeaveGroup removes the user from the group.
	LeaveGroup(ctx context.Context, groupID, userID string) error

	// ManageJoinRequest approves or rejects a pending request. Restricted
	// server-side to admins and moderators.
	ManageJoinRequest(ctx context.Context, groupID, requestUserID, action string) error

	// GetNotes and SaveNotes read and persist the durable copy of the
	// shared notes document.
	GetNotes(ctx context.Context, groupID string) (*types.NotesDocument, error)
	SaveNotes(ctx context.Context, groupID string, doc *types.NotesDocument) error

	// GetMessages returns the persisted chat history in stored order.
	GetMessages(ctx context.Context, groupID string) ([]types.ChatMessage, error)

	// SendMessage persists a chat message as the durable copy.
	SendMessage(ctx context.Context, msg *types.ChatMessage) error
}
