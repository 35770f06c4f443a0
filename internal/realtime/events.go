package realtime

import (
	"encoding/json"
	"fmt"

	"studybrain/pkg/types"
)

// decodeEvent turns a wire envelope into a typed event. Unknown event names
// decode to (nil, nil) and are dropped by the read loop.
func decodeEvent(envelope *types.Envelope) (*types.ChannelEvent, error) {
	switch envelope.Event {
	case types.EventGroupMessage:
		var msg types.ChatMessage
		if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return &types.ChannelEvent{Name: envelope.Event, Message: &msg}, nil

	case types.EventNotesUpdate:
		var update types.NotesUpdate
		if err := json.Unmarshal(envelope.Payload, &update); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return &types.ChannelEvent{Name: envelope.Event, Notes: &update}, nil

	case types.EventOnlineUsers:
		var roster types.RosterUpdate
		if err := json.Unmarshal(envelope.Payload, &roster); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return &types.ChannelEvent{Name: envelope.Event, Roster: roster.Users}, nil

	case types.EventUserJoined, types.EventUserLeft:
		var change types.PresenceChange
		if err := json.Unmarshal(envelope.Payload, &change); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return &types.ChannelEvent{Name: envelope.Event, Presence: &change}, nil

	case types.EventStartCall, types.EventEndCall:
		var signal types.CallSignal
		if err := json.Unmarshal(envelope.Payload, &signal); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return &types.ChannelEvent{Name: envelope.Event, Call: &signal}, nil
	}

	return nil, nil
}
