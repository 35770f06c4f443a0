package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"studybrain/pkg/types"
)

// FakeRealtimeServer is an in-memory stand-in for the realtime hub: it rooms
// connections by the group named in their join-study-group event, relays
// group events to the other room members, and maintains presence. Clients
// that disconnect are removed and announced with user-left-group.
type FakeRealtimeServer struct {
	Server *httptest.Server

	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[string]*roomClient // groupID -> connID -> client
}

type roomClient struct {
	id       string
	userID   string
	username string

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (rc *roomClient) send(envelope *types.Envelope) error {
	rc.writeMu.Lock()
	defer rc.writeMu.Unlock()
	return rc.conn.WriteJSON(envelope)
}

// NewFakeRealtimeServer starts the fake hub. Callers own shutdown via Close.
func NewFakeRealtimeServer() *FakeRealtimeServer {
	s := &FakeRealtimeServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[string]*roomClient),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handleConnection))
	return s
}

// URL returns the hub's ws:// address.
func (s *FakeRealtimeServer) URL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Close shuts the fake hub down.
func (s *FakeRealtimeServer) Close() { s.Server.Close() }

// RoomSize reports how many connections a group currently has, for
// assertions.
func (s *FakeRealtimeServer) RoomSize(groupID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms[groupID])
}

func (s *FakeRealtimeServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The first frame must be the join event naming the room.
	var envelope types.Envelope
	if err := conn.ReadJSON(&envelope); err != nil || envelope.Event != types.EventJoinGroup {
		return
	}
	var room types.JoinRoom
	if err := json.Unmarshal(envelope.Payload, &room); err != nil {
		return
	}

	client := &roomClient{
		id:       uuid.NewString(),
		userID:   room.UserID,
		username: room.Username,
		conn:     conn,
	}

	s.join(room.GroupID, client)
	defer s.leave(room.GroupID, client)

	for {
		var envelope types.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			return
		}
		s.relay(room.GroupID, client, &envelope)
	}
}

// join registers the client, announces it to the rest of the room and sends
// everyone the new roster.
func (s *FakeRealtimeServer) join(groupID string, client *roomClient) {
	s.mu.Lock()
	if s.rooms[groupID] == nil {
		s.rooms[groupID] = make(map[string]*roomClient)
	}
	s.rooms[groupID][client.id] = client
	others := s.othersLocked(groupID, client.id)
	roster := s.rosterLocked(groupID)
	s.mu.Unlock()

	joined, _ := types.NewEnvelope(types.EventUserJoined, &types.PresenceChange{
		GroupID:  groupID,
		UserID:   client.userID,
		Username: client.username,
	})
	for _, other := range others {
		other.send(joined)
	}

	s.broadcastRoster(groupID, roster)
}

// leave removes the client, announces the departure and refreshes the
// roster.
func (s *FakeRealtimeServer) leave(groupID string, client *roomClient) {
	s.mu.Lock()
	delete(s.rooms[groupID], client.id)
	others := s.othersLocked(groupID, client.id)
	roster := s.rosterLocked(groupID)
	s.mu.Unlock()

	left, _ := types.NewEnvelope(types.EventUserLeft, &types.PresenceChange{
		GroupID:  groupID,
		UserID:   client.userID,
		Username: client.username,
	})
	for _, other := range others {
		other.send(left)
	}

	s.broadcastRoster(groupID, roster)
}

// relay forwards a group event to every other member of the room. The
// sender's copy is not echoed back.
func (s *FakeRealtimeServer) relay(groupID string, sender *roomClient, envelope *types.Envelope) {
	switch envelope.Event {
	case types.EventGroupMessage, types.EventNotesUpdate, types.EventStartCall, types.EventEndCall:
	default:
		return
	}

	s.mu.Lock()
	others := s.othersLocked(groupID, sender.id)
	s.mu.Unlock()

	for _, other := range others {
		other.send(envelope)
	}
}

func (s *FakeRealtimeServer) othersLocked(groupID, exceptID string) []*roomClient {
	var others []*roomClient
	for id, client := range s.rooms[groupID] {
		if id != exceptID {
			others = append(others, client)
		}
	}
	return others
}

func (s *FakeRealtimeServer) rosterLocked(groupID string) []types.OnlineUser {
	roster := []types.OnlineUser{}
	for _, client := range s.rooms[groupID] {
		roster = append(roster, types.OnlineUser{UserID: client.userID, Username: client.username})
	}
	return roster
}

func (s *FakeRealtimeServer) broadcastRoster(groupID string, roster []types.OnlineUser) {
	envelope, _ := types.NewEnvelope(types.EventOnlineUsers, &types.RosterUpdate{
		GroupID: groupID,
		Users:   roster,
	})

	s.mu.Lock()
	members := s.othersLocked(groupID, "")
	s.mu.Unlock()

	for _, member := range members {
		member.send(envelope)
	}
}
