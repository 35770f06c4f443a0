package types

import (
	"time"
)

// Role of a member inside a study group. Closed enumeration; exactly one
// admin (the creator) is expected per group, though the client never
// validates that locally.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// Group privacy modes.
const (
	PrivacyPublic     = "public"
	PrivacyPrivate    = "private"
	PrivacyInviteOnly = "invite-only"
)

// Session is the client-held identity and onboarding-state bundle persisted
// across runs. It is overwritten wholesale on every successful auth
// response; missing fields default rather than error.
type Session struct {
	UserID                      string            `json:"userId"`
	Username                    string            `json:"username"`
	Email                       string            `json:"email"`
	AvatarURL                   string            `json:"avatarUrl"`
	HasCompletedPersonalization bool              `json:"hasCompletedPersonalization"`
	Personalization             map[string]string `json:"personalization,omitempty"`
}

// Group is a study-group entity as returned by the backend. Fetched fresh
// per view and mutated only by re-fetching after a server-confirmed action.
type Group struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Subject        string        `json:"subject"`
	Difficulty     string        `json:"difficulty"`
	Privacy        string        `json:"privacy"`
	MemberLimit    int           `json:"memberLimit"`
	CurrentMembers int           `json:"currentMembers"`
	Members        []Member      `json:"members"`
	JoinRequests   []JoinRequest `json:"joinRequests"`
	Tags           []string      `json:"tags"`
	Stats          GroupStats    `json:"stats"`
	UserRole       string        `json:"userRole"`
	IsMember       bool          `json:"isMember"`
}

// IsFull reports whether the group has reached its member limit. Used for
// proactive join gating only; the server remains authoritative.
func (g *Group) IsFull() bool {
	return g.MemberLimit > 0 && g.CurrentMembers >= g.MemberLimit
}

// GroupStats are aggregate counters maintained server-side.
type GroupStats struct {
	TotalSessions     int `json:"totalSessions"`
	TotalStudyMinutes int `json:"totalStudyMinutes"`
	MessagesSent      int `json:"messagesSent"`
}

// Member is a user's membership record within a group.
type Member struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Role          string    `json:"role"`
	JoinedAt      time.Time `json:"joinedAt"`
	LastActivity  time.Time `json:"lastActivity"`
	Contributions int       `json:"contributions"`
}

// JoinRequest is a pending membership application for an invite-only group.
// The backend removes it from the group's list once approved or rejected.
type JoinRequest struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	RequestedAt time.Time `json:"requestedAt"`
	Message     string    `json:"message"`
}

// ChatMessage is one entry in a group's append-only chat sequence. Ordering
// is arrival order over the realtime channel: no sequence numbers and no
// de-duplication, so a redelivered event produces a duplicate entry.
type ChatMessage struct {
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotesDocument is the single shared rich-text blob associated with a
// group. Concurrent edits resolve by whole-document overwrite on receipt of
// a remote update.
type NotesDocument struct {
	Content string `json:"content"`
}

// OnlineUser is one entry in a group's presence roster.
type OnlineUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// StudyTimeEntry is one logged study period for a user.
type StudyTimeEntry struct {
	Subject  string    `json:"subject"`
	Minutes  int       `json:"minutes"`
	LoggedAt time.Time `json:"loggedAt"`
}

// HomeworkItem is an assigned piece of homework shown on the dashboard.
type HomeworkItem struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"dueDate"`
	Completed bool      `json:"completed"`
}

// HomeworkLogEntry records time spent on a homework item.
type HomeworkLogEntry struct {
	HomeworkID string    `json:"homeworkId"`
	Minutes    int       `json:"minutes"`
	Note       string    `json:"note"`
	LoggedAt   time.Time `json:"loggedAt"`
}

// Assessment is a quiz or test available to the user.
type Assessment struct {
	ID        string     `json:"id"`
	Subject   string     `json:"subject"`
	Title     string     `json:"title"`
	Questions int        `json:"questions"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Completed bool       `json:"completed"`
	Score     *int       `json:"score,omitempty"`
}

// AssessmentSubmission carries a user's answers for one assessment.
type AssessmentSubmission struct {
	Answers map[string]string `json:"answers"`
}

// SubscriptionStatus is the billing state looked up from the payment
// provider's session endpoints.
type SubscriptionStatus struct {
	Plan      string     `json:"plan"`
	Active    bool       `json:"active"`
	RenewsAt  *time.Time `json:"renewsAt,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

// TimerState is the planner countdown state. Transient, memory-only, reset
// on restart.
type TimerState struct {
	ActiveDay      string `json:"activeDay"`
	SecondsLeft    int    `json:"secondsLeft"`
	InitialSeconds int    `json:"initialSeconds"`
	IsRunning      bool   `json:"isRunning"`
}
