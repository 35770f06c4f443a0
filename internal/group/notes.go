package group

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"studybrain/pkg/types"
)

// notesPolicy strips anything beyond user-generated-content HTML from the
// shared notes blob. Applied to remote updates and before persisting.
var notesPolicy = bluemonday.UGCPolicy()

// SanitizeNotes returns content with disallowed HTML removed.
func SanitizeNotes(content string) string {
	return notesPolicy.Sanitize(content)
}

// EditNotes applies a local edit and fans the whole document out on the
// channel. Fired on every edit, no debouncing: high edit frequency produces
// a proportional event rate.
func (c *Collab) EditNotes(content string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.notes.Content = content
	c.mu.Unlock()

	return c.channel.SendNotesUpdate(&types.NotesUpdate{
		GroupID:  c.groupID,
		UserID:   c.userID,
		Username: c.userName,
		Content:  content,
	})
}

// SaveNotes persists the current content via the API as the durable copy.
// The realtime path is ephemeral; only this call survives reloads.
func (c *Collab) SaveNotes(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrSessionClosed
	}
	doc := types.NotesDocument{Content: SanitizeNotes(c.notes.Content)}
	c.mu.RUnlock()

	if err := c.api.SaveNotes(ctx, c.groupID, &doc); err != nil {
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

// Notes returns the current local notes document.
func (c *Collab) Notes() types.NotesDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notes
}
