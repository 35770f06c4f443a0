package interfaces

import (
	"context"

	"studybrain/pkg/types"
)

// Channel is the client side of the group realtime connection. Implemented
// by the websocket channel in internal/realtime and by mocks in tests.
//
// Lifecycle: Connect transitions Disconnected -> Connecting -> Connected
// and emits the join-study-group event; Close (or a network drop) returns
// the channel to Disconnected. There is no automatic reconnect: after Done
// is closed, no further events are delivered or sent until the caller
// builds and connects a new channel.
type Channel interface {
	// Connect dials the realtime backend and joins the group room.
	Connect(ctx context.Context) error

	// Events delivers decoded inbound events in arrival order. The channel
	// is closed when the connection drops or Close is called.
	Events() <-chan *types.ChannelEvent

	// Done is closed once the connection is gone, whatever the cause.
	Done() <-chan struct{}

	// SendMessage fans a chat message out to other connected clients.
	SendMessage(msg *types.ChatMessage) error

	// SendNotesUpdate fans the whole notes document out to other clients.
	// Fired on every local edit; there is no debouncing.
	SendNotesUpdate(update *types.NotesUpdate) error

	// StartCall and EndCall carry call signaling only.
	StartCall() error
	EndCall() error

	// Close tears the connection down. Idempotent.
	Close() error
}
