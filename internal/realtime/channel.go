package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studybrain/internal/config"
	"studybrain/pkg/types"
)

// State of the channel connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Channel is one bidirectional event connection for a group room. One
// channel is opened per group view and torn down when the view goes away.
//
// Writes are serialized through a single writer goroutine; inbound events
// are decoded by a single reader goroutine and delivered in arrival order.
// A dropped connection closes Done and stops delivery until the caller
// builds a new channel: there is no automatic reconnect here.
type Channel struct {
	cfg  *config.RealtimeConfig
	room types.JoinRoom

	conn    *websocket.Conn
	writeCh chan []byte
	events  chan *types.ChannelEvent
	done    chan struct{}

	mu        sync.RWMutex
	state     State
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewChannel builds an unconnected channel for the given group room.
func NewChannel(cfg *config.RealtimeConfig, room types.JoinRoom, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		cfg:     cfg,
		room:    room,
		writeCh: make(chan []byte, cfg.BufferSize),
		events:  make(chan *types.ChannelEvent, cfg.BufferSize),
		done:    make(chan struct{}),
		state:   StateDisconnected,
		logger:  logger,
	}
}

// Connect dials the realtime backend, transitions to connected and emits
// the join-study-group event for this room.
func (ch *Channel) Connect(ctx context.Context) error {
	ch.mu.Lock()
	if ch.state != StateDisconnected {
		ch.mu.Unlock()
		return ErrAlreadyConnected
	}
	select {
	case <-ch.done:
		ch.mu.Unlock()
		return ErrChannelClosed
	default:
	}
	ch.state = StateConnecting
	ch.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, ch.cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, ch.cfg.URL, nil)
	if err != nil {
		ch.mu.Lock()
		ch.state = StateDisconnected
		ch.mu.Unlock()
		return fmt.Errorf("failed to connect to realtime backend: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ch.cfg.ReadTimeout))
	})

	ch.mu.Lock()
	ch.conn = conn
	ch.state = StateConnected
	ch.mu.Unlock()

	go ch.writeLoop()
	go ch.readLoop()

	if err := ch.send(types.EventJoinGroup, ch.room); err != nil {
		ch.Close()
		return fmt.Errorf("failed to join group room: %w", err)
	}

	ch.logger.Info("realtime channel connected",
		zap.String("groupId", ch.room.GroupID),
		zap.String("userId", ch.room.UserID))
	return nil
}

// writeLoop is the single writer. All frames go through writeCh so
// concurrent senders never interleave writes on the socket. The ping ticker
// keeps an otherwise idle connection inside the read deadline: the backend's
// pong answers re-arm it through the pong handler.
func (ch *Channel) writeLoop() {
	ticker := time.NewTicker(pingInterval(ch.cfg.ReadTimeout))
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-ch.writeCh:
			if !ok {
				return
			}
			if err := ch.conn.SetWriteDeadline(time.Now().Add(ch.cfg.WriteTimeout)); err != nil {
				ch.teardown()
				return
			}
			if err := ch.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				ch.logger.Warn("realtime write failed", zap.Error(err))
				ch.teardown()
				return
			}

		case <-ticker.C:
			if err := ch.conn.SetWriteDeadline(time.Now().Add(ch.cfg.WriteTimeout)); err != nil {
				ch.teardown()
				return
			}
			if err := ch.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ch.logger.Warn("realtime ping failed", zap.Error(err))
				ch.teardown()
				return
			}

		case <-ch.done:
			return
		}
	}
}

// pingInterval leaves the pong enough headroom before the read deadline.
func pingInterval(readTimeout time.Duration) time.Duration {
	interval := readTimeout * 9 / 10
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return interval
}

// readLoop decodes inbound envelopes into typed events. Exit closes the
// Events channel and Done, so callers can observe the drop.
func (ch *Channel) readLoop() {
	defer func() {
		ch.teardown()
		close(ch.events)
	}()

	for {
		if err := ch.conn.SetReadDeadline(time.Now().Add(ch.cfg.ReadTimeout)); err != nil {
			return
		}

		var envelope types.Envelope
		if err := ch.conn.ReadJSON(&envelope); err != nil {
			select {
			case <-ch.done:
			default:
				ch.logger.Warn("realtime read failed", zap.Error(err))
			}
			return
		}

		event, err := decodeEvent(&envelope)
		if err != nil {
			ch.logger.Debug("dropping undecodable event",
				zap.String("event", envelope.Event), zap.Error(err))
			continue
		}
		if event == nil {
			// Unknown event name; newer backends may emit more than we know.
			continue
		}

		select {
		case ch.events <- event:
		case <-ch.done:
			return
		}
	}
}

// Events delivers decoded inbound events in arrival order.
func (ch *Channel) Events() <-chan *types.ChannelEvent {
	return ch.events
}

// Done is closed once the connection is gone, whatever the cause.
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

// State returns the current connection state.
func (ch *Channel) State() State {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.state
}

// send marshals an envelope and queues it on the writer.
func (ch *Channel) send(event string, payload interface{}) error {
	ch.mu.RLock()
	connected := ch.state == StateConnected
	ch.mu.RUnlock()
	if !connected {
		return ErrChannelClosed
	}

	envelope, err := types.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	select {
	case ch.writeCh <- data:
		return nil
	case <-time.After(ch.cfg.WriteTimeout):
		return ErrWriteTimeout
	case <-ch.done:
		return ErrChannelClosed
	}
}

// SendMessage fans a chat message out to the room.
func (ch *Channel) SendMessage(msg *types.ChatMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return ch.send(types.EventGroupMessage, msg)
}

// SendNotesUpdate fans the whole notes document out to the room. Called on
// every local edit, so the event rate tracks the edit rate.
func (ch *Channel) SendNotesUpdate(update *types.NotesUpdate) error {
	return ch.send(types.EventNotesUpdate, update)
}

// StartCall signals call start to the room. Signaling only.
func (ch *Channel) StartCall() error {
	return ch.send(types.EventStartCall, types.CallSignal{
		GroupID:  ch.room.GroupID,
		UserID:   ch.room.UserID,
		Username: ch.room.Username,
	})
}

// EndCall signals call end to the room.
func (ch *Channel) EndCall() error {
	return ch.send(types.EventEndCall, types.CallSignal{
		GroupID:  ch.room.GroupID,
		UserID:   ch.room.UserID,
		Username: ch.room.Username,
	})
}

// teardown flips the channel to disconnected exactly once.
func (ch *Channel) teardown() {
	ch.closeOnce.Do(func() {
		ch.mu.Lock()
		ch.state = StateDisconnected
		conn := ch.conn
		ch.mu.Unlock()

		close(ch.done)
		if conn != nil {
			_ = conn.Close()
		}
	})
}

// Close tears the connection down. Idempotent.
func (ch *Channel) Close() error {
	ch.teardown()
	return nil
}
