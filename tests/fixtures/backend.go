package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/google/uuid"

	"studybrain/pkg/types"
)

// InviteState is the lifecycle state of an invite token on the fake backend.
type InviteState int

const (
	InviteValid InviteState = iota
	InviteExpired
	InviteDisabled
)

type invite struct {
	GroupID string
	State   InviteState
}

// FakeBackend is an in-memory stand-in for the StudyBrain REST service. It
// implements the routes the client talks to with just enough semantics for
// scenario tests: membership, join requests, invite tokens, chat history,
// notes and the dashboard reads. Endpoint failures can be switched on per
// route to exercise partial-failure behavior.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	groups   map[string]*groupRecord
	invites  map[string]invite
	failures map[string]int // route name -> status to fail with

	studyTime    map[string][]types.StudyTimeEntry
	homework     map[string][]types.HomeworkItem
	homeworkLog  map[string][]types.HomeworkLogEntry
	assessments  map[string][]types.Assessment
	subscription map[string]*types.SubscriptionStatus
}

// groupRecord is the backend's own view of a group, independent of any
// viewer. GetGroup projects it for one userId.
type groupRecord struct {
	Group    types.Group
	Members  map[string]string // userID -> role
	Requests []types.JoinRequest
	Messages []types.ChatMessage
	Notes    string
}

// NewFakeBackend starts the fake service. Callers own shutdown via Close.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		groups:       make(map[string]*groupRecord),
		invites:      make(map[string]invite),
		failures:     make(map[string]int),
		studyTime:    make(map[string][]types.StudyTimeEntry),
		homework:     make(map[string][]types.HomeworkItem),
		homeworkLog:  make(map[string][]types.HomeworkLogEntry),
		assessments:  make(map[string][]types.Assessment),
		subscription: make(map[string]*types.SubscriptionStatus),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /study-groups/{id}", b.handleGetGroup)
	// POST /study-groups/join/{token} and POST /study-groups/{id}/join are
	// ambiguous as ServeMux patterns, so the two-segment POSTs share one
	// dispatcher.
	mux.HandleFunc("POST /study-groups/{first}/{second}", b.handleGroupPost)
	mux.HandleFunc("POST /study-groups/{id}/requests/{userId}", b.handleManageRequest)
	mux.HandleFunc("GET /study-groups/{id}/notes", b.handleGetNotes)
	mux.HandleFunc("GET /study-groups/{id}/messages", b.handleGetMessages)
	mux.HandleFunc("GET /studytime/{userId}", b.handleGetStudyTime)
	mux.HandleFunc("POST /studytime/{userId}", b.handleLogStudyTime)
	mux.HandleFunc("GET /homework/{userId}", b.handleGetHomework)
	mux.HandleFunc("POST /homeworklog/{userId}", b.handleLogHomework)
	mux.HandleFunc("GET /assessments/{userId}", b.handleGetAssessments)
	mux.HandleFunc("GET /subscription/session/{userId}", b.handleGetSubscription)

	b.Server = httptest.NewServer(mux)
	return b
}

// URL returns the backend's base URL.
func (b *FakeBackend) URL() string { return b.Server.URL }

// Close shuts the fake service down.
func (b *FakeBackend) Close() { b.Server.Close() }

// FailRoute makes the named route (studytime, homework, assessments,
// subscription) answer with the given status until cleared.
func (b *FakeBackend) FailRoute(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = status
}

// AddGroup seeds a group. Members maps userID to role.
func (b *FakeBackend) AddGroup(group types.Group, members map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := &groupRecord{
		Group:   group,
		Members: make(map[string]string),
	}
	for id, role := range members {
		rec.Members[id] = role
	}
	b.groups[group.ID] = rec
}

// AddInvite seeds an invite token for a group and returns the token.
func (b *FakeBackend) AddInvite(groupID string, state InviteState) string {
	token := uuid.NewString()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invites[token] = invite{GroupID: groupID, State: state}
	return token
}

// AddJoinRequest seeds a pending join request.
func (b *FakeBackend) AddJoinRequest(groupID string, req types.JoinRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec, ok := b.groups[groupID]; ok {
		rec.Requests = append(rec.Requests, req)
	}
}

// SeedDashboard installs the dashboard reads for one user.
func (b *FakeBackend) SeedDashboard(userID string, entries []types.StudyTimeEntry, items []types.HomeworkItem, assessments []types.Assessment, status *types.SubscriptionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.studyTime[userID] = entries
	b.homework[userID] = items
	b.assessments[userID] = assessments
	b.subscription[userID] = status
}

// IsMember reports backend-side membership, for assertions.
func (b *FakeBackend) IsMember(groupID, userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		return false
	}
	_, member := rec.Members[userID]
	return member
}

// HomeworkLog returns a user's logged homework entries, for assertions.
func (b *FakeBackend) HomeworkLog(userID string) []types.HomeworkLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.HomeworkLogEntry{}, b.homeworkLog[userID]...)
}

// StoredMessages returns the stored chat history, for assertions.
func (b *FakeBackend) StoredMessages(groupID string) []types.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		return nil
	}
	return append([]types.ChatMessage{}, rec.Messages...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// project builds the viewer-specific group the real backend would return.
func (rec *groupRecord) project(userID string) types.Group {
	grp := rec.Group
	grp.CurrentMembers = len(rec.Members)
	grp.Members = nil
	for id, role := range rec.Members {
		grp.Members = append(grp.Members, types.Member{UserID: id, Role: role})
	}
	grp.JoinRequests = append([]types.JoinRequest{}, rec.Requests...)
	if role, ok := rec.Members[userID]; ok {
		grp.IsMember = true
		grp.UserRole = role
	} else {
		grp.IsMember = false
		grp.UserRole = ""
	}
	return grp
}

func (b *FakeBackend) handleGroupPost(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	if first == "join" {
		b.handleJoinByInvite(w, r, second)
		return
	}
	switch second {
	case "join":
		b.handleJoin(w, r, first)
	case "leave":
		b.handleLeave(w, r, first)
	case "notes":
		b.handleSaveNotes(w, r, first)
	case "messages":
		b.handleSendMessage(w, r, first)
	default:
		writeError(w, http.StatusNotFound, "not found", "")
	}
}

func (b *FakeBackend) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	writeJSON(w, http.StatusOK, rec.project(r.URL.Query().Get("userId")))
}

type joinBody struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (b *FakeBackend) handleJoin(w http.ResponseWriter, r *http.Request, groupID string) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	if _, member := rec.Members[body.UserID]; member {
		writeJSON(w, http.StatusOK, types.JoinResult{Success: true, AlreadyMember: true, Message: "already a member"})
		return
	}
	if rec.Group.MemberLimit > 0 && len(rec.Members) >= rec.Group.MemberLimit {
		writeError(w, http.StatusConflict, "group is full", "group_full")
		return
	}
	if rec.Group.Privacy == types.PrivacyInviteOnly {
		rec.Requests = append(rec.Requests, types.JoinRequest{UserID: body.UserID, UserName: body.UserName})
		writeJSON(w, http.StatusOK, types.JoinResult{Success: true, Message: "join request filed"})
		return
	}
	rec.Members[body.UserID] = types.RoleMember
	writeJSON(w, http.StatusOK, types.JoinResult{Success: true, Message: "joined"})
}

func (b *FakeBackend) handleJoinByInvite(w http.ResponseWriter, r *http.Request, token string) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	inv, ok := b.invites[token]
	if !ok {
		writeError(w, http.StatusNotFound, "invite not found", "")
		return
	}
	switch inv.State {
	case InviteExpired:
		writeError(w, http.StatusGone, "invite has expired", "invite_expired")
		return
	case InviteDisabled:
		writeError(w, http.StatusForbidden, "invite is disabled", "invite_disabled")
		return
	}
	rec, ok := b.groups[inv.GroupID]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	if _, member := rec.Members[body.UserID]; member {
		writeJSON(w, http.StatusOK, types.JoinResult{Success: true, AlreadyMember: true, Message: "already a member"})
		return
	}
	rec.Members[body.UserID] = types.RoleMember
	writeJSON(w, http.StatusOK, types.JoinResult{Success: true, Message: "joined via invite"})
}

func (b *FakeBackend) handleLeave(w http.ResponseWriter, r *http.Request, groupID string) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	delete(rec.Members, body.UserID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *FakeBackend) handleManageRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	requestUserID := r.PathValue("userId")
	for i, req := range rec.Requests {
		if req.UserID == requestUserID {
			rec.Requests = append(rec.Requests[:i], rec.Requests[i+1:]...)
			if body.Action == types.RequestApprove {
				rec.Members[requestUserID] = types.RoleMember
			}
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "join request not found", "")
}

func (b *FakeBackend) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	writeJSON(w, http.StatusOK, types.NotesDocument{Content: rec.Notes})
}

func (b *FakeBackend) handleSaveNotes(w http.ResponseWriter, r *http.Request, groupID string) {
	var doc types.NotesDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	rec.Notes = doc.Content
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *FakeBackend) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	messages := rec.Messages
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (b *FakeBackend) handleSendMessage(w http.ResponseWriter, r *http.Request, groupID string) {
	var msg types.ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.groups[groupID]
	if !ok {
		writeError(w, http.StatusNotFound, "group not found", "")
		return
	}
	rec.Messages = append(rec.Messages, msg)
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (b *FakeBackend) failing(route string, w http.ResponseWriter) bool {
	if status, ok := b.failures[route]; ok {
		writeError(w, status, route+" unavailable", "")
		return true
	}
	return false
}

func (b *FakeBackend) handleGetStudyTime(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing("studytime", w) {
		return
	}
	entries := b.studyTime[r.PathValue("userId")]
	if entries == nil {
		entries = []types.StudyTimeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (b *FakeBackend) handleLogStudyTime(w http.ResponseWriter, r *http.Request) {
	var entry types.StudyTimeEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing("studytime", w) {
		return
	}
	userID := r.PathValue("userId")
	b.studyTime[userID] = append(b.studyTime[userID], entry)
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (b *FakeBackend) handleGetHomework(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing("homework", w) {
		return
	}
	items := b.homework[r.PathValue("userId")]
	if items == nil {
		items = []types.HomeworkItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (b *FakeBackend) handleLogHomework(w http.ResponseWriter, r *http.Request) {
	var entry types.HomeworkLogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	userID := r.PathValue("userId")
	b.homeworkLog[userID] = append(b.homeworkLog[userID], entry)
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (b *FakeBackend) handleGetAssessments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing("assessments", w) {
		return
	}
	assessments := b.assessments[r.PathValue("userId")]
	if assessments == nil {
		assessments = []types.Assessment{}
	}
	writeJSON(w, http.StatusOK, assessments)
}

func (b *FakeBackend) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing("subscription", w) {
		return
	}
	status, ok := b.subscription[r.PathValue("userId")]
	if !ok {
		writeError(w, http.StatusNotFound, "no subscription session", "")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
