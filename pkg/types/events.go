package types

import (
	"encoding/json"
)

// Realtime event names carried on the group channel. These are the wire
// names the realtime backend expects and emits.
const (
	EventJoinGroup    = "join-study-group"
	EventGroupMessage = "group-message"
	EventNotesUpdate  = "group-notes-update"
	EventOnlineUsers  = "online-users"
	EventUserJoined   = "user-joined-group"
	EventUserLeft     = "user-left-group"
	EventStartCall    = "start-group-call"
	EventEndCall      = "end-group-call"
)

// Envelope is the wire frame for every realtime event: an event name plus a
// JSON payload whose shape depends on the name.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an Envelope. Payload types are plain
// structs, so marshaling only fails on programmer error.
func NewEnvelope(event string, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Payload: raw}, nil
}

// JoinRoom is the payload of a join-study-group event, sent once when the
// channel enters the connected state.
type JoinRoom struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// NotesUpdate is the payload of a group-notes-update event. Content is the
// whole document; receivers replace rather than merge.
type NotesUpdate struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// PresenceChange is the payload of user-joined-group and user-left-group
// events: a single roster entry.
type PresenceChange struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RosterUpdate is the payload of an online-users event: the full roster,
// replacing whatever the client held before.
type RosterUpdate struct {
	GroupID string       `json:"groupId"`
	Users   []OnlineUser `json:"users"`
}

// CallSignal is the payload of start-group-call and end-group-call events.
// Signaling only; no media negotiation happens client-side.
type CallSignal struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ChannelEvent is a decoded inbound event. Exactly one of the payload
// fields is set, matching Name.
type ChannelEvent struct {
	Name     string
	Message  *ChatMessage
	Notes    *NotesUpdate
	Roster   []OnlineUser
	Presence *PresenceChange
	Call     *CallSignal
}
