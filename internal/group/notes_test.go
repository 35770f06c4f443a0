package group

import (
	"context"
	"strings"
	"testing"

	"studybrain/pkg/types"
)

func TestSanitizeNotes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		keeps  string
		strips string
	}{
		{"plain text", "study plan for week 3", "study plan", ""},
		{"formatting kept", "<b>chapter 4</b> summary", "<b>chapter 4</b>", ""},
		{"script stripped", `<script>alert("x")</script>notes`, "notes", "<script>"},
		{"event handler stripped", `<img src="x" onerror="alert(1)">`, "", "onerror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeNotes(tt.input)
			if tt.keeps != "" && !strings.Contains(out, tt.keeps) {
				t.Errorf("Expected %q to survive, got %q", tt.keeps, out)
			}
			if tt.strips != "" && strings.Contains(out, tt.strips) {
				t.Errorf("Expected %q to be stripped, got %q", tt.strips, out)
			}
		})
	}
}

func TestCollab_EditNotesFansOutWholeDocument(t *testing.T) {
	api := &mockAPI{group: testGroup()}
	channel := newMockChannel()
	collab := newTestCollab(t, api, channel)

	if err := collab.EditNotes("draft one"); err != nil {
		t.Fatalf("EditNotes failed: %v", err)
	}
	if err := collab.EditNotes("draft two"); err != nil {
		t.Fatalf("EditNotes failed: %v", err)
	}

	// No debouncing: every edit produces an update carrying the whole blob.
	if len(channel.sentNotes) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(channel.sentNotes))
	}
	if channel.sentNotes[1].Content != "draft two" {
		t.Errorf("Expected whole document, got %q", channel.sentNotes[1].Content)
	}
	if channel.sentNotes[1].UserID != "u1" {
		t.Errorf("Update should carry the editor's identity, got %q", channel.sentNotes[1].UserID)
	}

	if collab.Notes().Content != "draft two" {
		t.Errorf("Local notes should reflect the edit, got %q", collab.Notes().Content)
	}
}

func TestCollab_NotesLastWriteWins(t *testing.T) {
	api := &mockAPI{group: testGroup()}
	channel := newMockChannel()
	collab := newTestCollab(t, api, channel)

	if err := collab.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Two remote edits: arrival order alone decides the final content.
	channel.emit(&types.ChannelEvent{Name: types.EventNotesUpdate, Notes: &types.NotesUpdate{
		GroupID: "g1", UserID: "u2", Username: "lee", Content: "version A",
	}})
	channel.emit(&types.ChannelEvent{Name: types.EventNotesUpdate, Notes: &types.NotesUpdate{
		GroupID: "g1", UserID: "u3", Username: "ana", Content: "version B",
	}})

	waitFor(t, func() bool { return collab.Notes().Content == "version B" }, "last remote write")
}

func TestCollab_NotesSelfOriginIgnored(t *testing.T) {
	api := &mockAPI{group: testGroup()}
	channel := newMockChannel()
	collab := newTestCollab(t, api, channel)

	if err := collab.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := collab.EditNotes("my local draft"); err != nil {
		t.Fatalf("EditNotes failed: %v", err)
	}

	// Our own update echoed back must not re-apply over the local draft.
	channel.emit(&types.ChannelEvent{Name: types.EventNotesUpdate, Notes: &types.NotesUpdate{
		GroupID: "g1", UserID: "u1", Username: "kim", Content: "stale echo",
	}})
	// A remote edit still applies afterwards, proving the pump consumed both.
	channel.emit(&types.ChannelEvent{Name: types.EventNotesUpdate, Notes: &types.NotesUpdate{
		GroupID: "g1", UserID: "u2", Username: "lee", Content: "remote edit",
	}})

	waitFor(t, func() bool { return collab.Notes().Content == "remote edit" }, "remote edit application")
}

func TestCollab_RemoteNotesAreSanitized(t *testing.T) {
	api := &mockAPI{group: testGroup()}
	channel := newMockChannel()
	collab := newTestCollab(t, api, channel)

	if err := collab.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	channel.emit(&types.ChannelEvent{Name: types.EventNotesUpdate, Notes: &types.NotesUpdate{
		GroupID: "g1", UserID: "u2", Username: "lee",
		Content: `<script>steal()</script><b>safe part</b>`,
	}})

	waitFor(t, func() bool { return strings.Contains(collab.Notes().Content, "safe part") }, "sanitized content")

	if strings.Contains(collab.Notes().Content, "<script>") {
		t.Errorf("Script tags must not survive, got %q", collab.Notes().Content)
	}
}

func TestCollab_SaveNotesSanitizesBeforePersisting(t *testing.T) {
	api := &mockAPI{group: testGroup()}
	channel := newMockChannel()
	collab := newTestCollab(t, api, channel)

	if err := collab.EditNotes(`<script>x()</script>summary`); err != nil {
		t.Fatalf("EditNotes failed: %v", err)
	}
	if err := collab.SaveNotes(context.Background()); err != nil {
		t.Fatalf("SaveNotes failed: %v", err)
	}

	if len(api.savedNotes) != 1 {
		t.Fatalf("Expected 1 persisted document, got %d", len(api.savedNotes))
	}
	if strings.Contains(api.savedNotes[0], "<script>") {
		t.Errorf("Persisted notes must be sanitized, got %q", api.savedNotes[0])
	}
	if !strings.Contains(api.savedNotes[0], "summary") {
		t.Errorf("Persisted notes lost content, got %q", api.savedNotes[0])
	}
}
