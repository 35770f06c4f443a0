package group

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"studybrain/pkg/interfaces"
	"studybrain/pkg/types"
)

// Membership is the viewer's state with respect to the group.
type Membership int

const (
	NonMember Membership = iota
	Pending              // join request filed, awaiting approval
	Member
)

func (m Membership) String() string {
	switch m {
	case Pending:
		return "pending"
	case Member:
		return "member"
	default:
		return "non-member"
	}
}

// Collab is one group collaboration session: the client-side state behind
// the group detail view. It binds the REST client (durable writes) and the
// realtime channel (live fan-out) to local chat, presence, notes and
// membership state.
//
// All conflict resolution is delegated to the server or, for notes,
// resolved here by whole-document overwrite. The chat log is append-only in
// arrival order; a redelivered event yields a duplicate entry.
type Collab struct {
	api     interfaces.GroupAPI
	channel interfaces.Channel
	logger  *zap.Logger

	groupID  string
	userID   string
	userName string

	mu             sync.RWMutex
	onNotification func(text string)
	onMessage      func(msg types.ChatMessage)

	group      *types.Group
	membership Membership
	messages   []types.ChatMessage
	online     []types.OnlineUser
	notes      types.NotesDocument
	callActive bool
	closed     bool

	pumpStarted bool
	pumpDone    chan struct{}
}

// NewCollab builds a collaboration session for one group as one viewer.
func NewCollab(api interfaces.GroupAPI, channel interfaces.Channel, groupID, userID, userName string, logger *zap.Logger) *Collab {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collab{
		api:      api,
		channel:  channel,
		logger:   logger,
		groupID:  groupID,
		userID:   userID,
		userName: userName,
		pumpDone: make(chan struct{}),
	}
}

// SetHooks registers the view callbacks: notification receives transient
// user-facing notices (user joined/left, call started), message receives
// each chat message as it arrives (the scroll-to-bottom hook). Either may
// be nil. Safe to call while events are flowing.
func (c *Collab) SetHooks(notification func(text string), message func(msg types.ChatMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotification = notification
	c.onMessage = message
}

// Load fetches the group, chat history and notes. One failing fetch does
// not abort the others; the group fetch alone is required.
func (c *Collab) Load(ctx context.Context) error {
	grp, err := c.api.GetGroup(ctx, c.groupID, c.userID)
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}
	if !c.setGroup(grp) {
		return ErrSessionClosed
	}

	if history, err := c.api.GetMessages(ctx, c.groupID); err != nil {
		c.logger.Warn("failed to load chat history", zap.Error(err))
	} else {
		c.mu.Lock()
		if !c.closed {
			c.messages = history
		}
		c.mu.Unlock()
	}

	if doc, err := c.api.GetNotes(ctx, c.groupID); err != nil {
		c.logger.Warn("failed to load notes", zap.Error(err))
	} else {
		c.mu.Lock()
		if !c.closed {
			c.notes.Content = SanitizeNotes(doc.Content)
		}
		c.mu.Unlock()
	}

	return nil
}

// Start connects the realtime channel and begins consuming its events.
func (c *Collab) Start(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	if err := c.channel.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.pumpStarted = true
	c.mu.Unlock()
	go c.pump()
	return nil
}

// pump applies inbound realtime events in arrival order. A single consumer
// goroutine keeps ordering deterministic.
func (c *Collab) pump() {
	defer close(c.pumpDone)

	for event := range c.channel.Events() {
		c.apply(event)
	}
}

func (c *Collab) apply(event *types.ChannelEvent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var notification string
	var arrived *types.ChatMessage

	switch event.Name {
	case types.EventGroupMessage:
		c.messages = append(c.messages, *event.Message)
		arrived = event.Message

	case types.EventNotesUpdate:
		// Last write wins: replace the whole document unless we sent it.
		// An in-flight local edit can be clobbered here; that is the
		// accepted policy for this scratch space.
		if event.Notes.UserID != c.userID {
			c.notes.Content = SanitizeNotes(event.Notes.Content)
		}

	case types.EventOnlineUsers:
		c.online = event.Roster

	case types.EventUserJoined:
		if !c.rosterContains(event.Presence.UserID) {
			c.online = append(c.online, types.OnlineUser{
				UserID:   event.Presence.UserID,
				Username: event.Presence.Username,
			})
		}
		notification = event.Presence.Username + " joined the group"

	case types.EventUserLeft:
		for i, u := range c.online {
			if u.UserID == event.Presence.UserID {
				c.online = append(c.online[:i], c.online[i+1:]...)
				break
			}
		}
		notification = event.Presence.Username + " left the group"

	case types.EventStartCall:
		c.callActive = true
		notification = event.Call.Username + " started a call"

	case types.EventEndCall:
		c.callActive = false
		notification = "Call ended"
	}

	notify := c.onNotification
	onMessage := c.onMessage
	c.mu.Unlock()

	if arrived != nil && onMessage != nil {
		onMessage(*arrived)
	}
	if notification != "" && notify != nil {
		notify(notification)
	}
}

func (c *Collab) rosterContains(userID string) bool {
	for _, u := range c.online {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// setGroup stores a freshly fetched group and derives the membership state
// from it. Returns false when the session closed while the fetch was in
// flight; the stale response is discarded rather than applied.
func (c *Collab) setGroup(grp *types.Group) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.group = grp
	switch {
	case grp.IsMember:
		c.membership = Member
	case c.hasPendingRequest(grp):
		c.membership = Pending
	default:
		c.membership = NonMember
	}
	return true
}

func (c *Collab) hasPendingRequest(grp *types.Group) bool {
	for _, req := range grp.JoinRequests {
		if req.UserID == c.userID {
			return true
		}
	}
	return false
}

// refetch replaces local group state with the server's view. Used after
// every membership mutation instead of local patching.
func (c *Collab) refetch(ctx context.Context) error {
	grp, err := c.api.GetGroup(ctx, c.groupID, c.userID)
	if err != nil {
		return fmt.Errorf("failed to refresh group: %w", err)
	}
	if !c.setGroup(grp) {
		return ErrSessionClosed
	}
	return nil
}

// CanJoin reports whether the join control should be enabled: not already a
// member and not at capacity. The server stays authoritative; this only
// gates the request proactively.
func (c *Collab) CanJoin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.group == nil || c.membership == Member {
		return false
	}
	return !c.group.IsFull()
}

// Join asks to join the group. When the group is at capacity no request is
// sent at all. An "already a member" response counts as success.
func (c *Collab) Join(ctx context.Context) error {
	c.mu.RLock()
	grp := c.group
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return ErrSessionClosed
	}
	if grp == nil {
		return ErrGroupNotLoaded
	}
	if grp.IsFull() {
		return ErrGroupFull
	}

	result, err := c.api.JoinGroup(ctx, c.groupID, c.userID, c.userName)
	if err != nil {
		return err
	}
	if !result.Success && !result.AlreadyMember {
		return fmt.Errorf("join rejected: %s", result.Message)
	}

	return c.refetch(ctx)
}

// JoinByInvite redeems an invite token. On success with a fresh membership
// the full group is fetched and rendered; an expired or disabled token
// surfaces an error message carrying the literal token string.
func (c *Collab) JoinByInvite(ctx context.Context, token string) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	result, err := c.api.JoinByInviteToken(ctx, token, c.userID, c.userName)
	if err != nil {
		return fmt.Errorf("invite %s could not be redeemed: %w", token, err)
	}
	if !result.Success && !result.AlreadyMember {
		return fmt.Errorf("invite %s was rejected: %s", token, result.Message)
	}

	return c.refetch(ctx)
}

// ManageRequest approves or rejects a pending join request. Gated locally
// on the viewer's role; on success the whole group is re-fetched rather
// than locally patched.
func (c *Collab) ManageRequest(ctx context.Context, requestUserID, action string) error {
	c.mu.RLock()
	grp := c.group
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return ErrSessionClosed
	}
	if grp == nil {
		return ErrGroupNotLoaded
	}
	if !types.CanManageRequests(grp.UserRole) {
		return ErrNotAllowed
	}

	if err := c.api.ManageJoinRequest(ctx, c.groupID, requestUserID, action); err != nil {
		return err
	}

	return c.refetch(ctx)
}

// Leave removes the viewer from the group. Requires explicit confirmation;
// on success the session shuts down, matching the view navigating away.
func (c *Collab) Leave(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrLeaveNotConfirmed
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	if err := c.api.LeaveGroup(ctx, c.groupID, c.userID); err != nil {
		return err
	}

	return c.Close()
}

// SendChat sends a chat message on both paths independently: the API for
// the durable copy, the channel for live fan-out. The local log gets the
// message immediately; there is no shared transaction between the paths.
func (c *Collab) SendChat(ctx context.Context, text string) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	msg := types.ChatMessage{
		GroupID:   c.groupID,
		UserID:    c.userID,
		Username:  c.userName,
		Message:   text,
		Timestamp: time.Now(),
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := c.api.SendMessage(ctx, &msg); err != nil {
		return err
	}

	if err := c.channel.SendMessage(&msg); err != nil {
		// The durable write already succeeded; the live copy just won't
		// reach currently connected peers.
		c.logger.Warn("live message fan-out failed", zap.Error(err))
	}

	c.mu.Lock()
	if !c.closed {
		c.messages = append(c.messages, msg)
	}
	c.mu.Unlock()

	return nil
}

// StartCall toggles the call placeholder on and signals the room.
func (c *Collab) StartCall() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.callActive = true
	c.mu.Unlock()
	return c.channel.StartCall()
}

// EndCall toggles the call placeholder off and signals the room.
func (c *Collab) EndCall() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.callActive = false
	c.mu.Unlock()
	return c.channel.EndCall()
}

// Close tears down the session: the channel disconnects and any responses
// still in flight are discarded instead of mutating closed state.
func (c *Collab) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.pumpStarted
	c.mu.Unlock()

	err := c.channel.Close()
	if started {
		<-c.pumpDone
	}
	return err
}

// Group returns the last fetched group, or nil before Load.
func (c *Collab) Group() *types.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// Membership returns the viewer's membership state.
func (c *Collab) Membership() Membership {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.membership
}

// Messages returns a copy of the chat log in arrival order.
func (c *Collab) Messages() []types.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Online returns a copy of the presence roster.
func (c *Collab) Online() []types.OnlineUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.OnlineUser, len(c.online))
	copy(out, c.online)
	return out
}

// CallActive reports the call placeholder state.
func (c *Collab) CallActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callActive
}
