package interfaces

import (
	"context"

	"studybrain/pkg/types"
)

// Profile is the loosely-typed user object returned by auth endpoints.
// Different backend paths populate different fields, so the store extracts
// known fields with fallbacks rather than requiring all of them.
type Profile struct {
	ID                          string            `json:"id"`
	LegacyID                    string            `json:"_id"`
	Username                    string            `json:"username"`
	FirstName                   string            `json:"firstName"`
	Email                       string            `json:"email"`
	AvatarURL                   string            `json:"avatarUrl"`
	HasCompletedPersonalization bool              `json:"hasCompletedPersonalization"`
	Personalization             map[string]string `json:"personalization"`
}

// SessionStore is the persisted client session: identity plus onboarding
// and ad hoc flags, each stored as an independent key.
type SessionStore interface {
	// Save extracts known fields from profile (with fallbacks) and writes
	// each as an independent key. There is no atomicity across keys.
	Save(ctx context.Context, profile *Profile) error

	// Load returns the stored session with defaults for missing keys. Never
	// fails just because keys are absent.
	Load(ctx context.Context) (*types.Session, error)

	// Clear deletes all known session keys. Idempotent.
	Clear(ctx context.Context) error

	// Get, Set and Delete handle ad hoc flags such as upgradeInfo and
	// subscriptionUpdated.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Subscribe registers a callback invoked after every local write, the
	// storage-change notification pages listen to for subscription refresh.
	Subscribe(fn func(key string))

	// Close releases the underlying storage.
	Close() error
}
