package types

// Join-request management actions.
const (
	RequestApprove = "approve"
	RequestReject  = "reject"
)

// JoinResult is the decoded outcome of a join or invite-token call. The
// backend reports "already a member" as a success variant; callers treat it
// as idempotent success.
type JoinResult struct {
	Success       bool   `json:"success"`
	AlreadyMember bool   `json:"alreadyMember"`
	Message       string `json:"message"`
}
