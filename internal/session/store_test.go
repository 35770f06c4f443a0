package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"studybrain/pkg/interfaces"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "session.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveExtractsKnownFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := &interfaces.Profile{
		ID:                          "user-1",
		Username:                    "kim",
		Email:                       "kim@example.com",
		AvatarURL:                   "https://cdn.example.com/kim.png",
		HasCompletedPersonalization: true,
		Personalization:             map[string]string{"studyStyle": "visual"},
	}

	if err := store.Save(ctx, profile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sess, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sess.UserID != "user-1" {
		t.Errorf("Expected userId user-1, got %s", sess.UserID)
	}
	if sess.Username != "kim" {
		t.Errorf("Expected username kim, got %s", sess.Username)
	}
	if sess.Email != "kim@example.com" {
		t.Errorf("Expected email, got %s", sess.Email)
	}
	if !sess.HasCompletedPersonalization {
		t.Error("Expected hasCompletedPersonalization to be true")
	}
	if sess.Personalization["studyStyle"] != "visual" {
		t.Errorf("Expected personalization round-trip, got %v", sess.Personalization)
	}
}

func TestStore_SaveFallbacks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Legacy ID field and firstName instead of username.
	profile := &interfaces.Profile{
		LegacyID:  "legacy-7",
		FirstName: "Jordan",
	}

	if err := store.Save(ctx, profile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sess, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sess.UserID != "legacy-7" {
		t.Errorf("Expected _id fallback, got %s", sess.UserID)
	}
	if sess.Username != "Jordan" {
		t.Errorf("Expected firstName fallback, got %s", sess.Username)
	}
}

func TestStore_SaveDefaultsUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &interfaces.Profile{ID: "user-2"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sess, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sess.Username != "User" {
		t.Errorf("Expected username to default to User, got %q", sess.Username)
	}
}

func TestStore_SaveNilProfile(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilProfile) {
		t.Errorf("Expected ErrNilProfile, got %v", err)
	}
}

func TestStore_ClearRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// clear -> save -> clear leaves no session keys present.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}

	if err := store.Save(ctx, &interfaces.Profile{ID: "user-3", Username: "sam"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range sessionKeys {
		if _, err := store.Get(ctx, key); !errors.Is(err, interfaces.ErrKeyNotFound) {
			t.Errorf("Expected key %s to be absent after Clear, got err=%v", key, err)
		}
	}

	sess, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if sess.UserID != "" || sess.Username != "" {
		t.Errorf("Expected empty session after Clear, got %+v", sess)
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("First Clear failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Second Clear failed: %v", err)
	}
}

func TestStore_AdHocFlags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, KeySubscriptionUpdated, "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, KeySubscriptionUpdated)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "true" {
		t.Errorf("Expected true, got %s", value)
	}

	if err := store.Delete(ctx, KeySubscriptionUpdated); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, KeySubscriptionUpdated); !errors.Is(err, interfaces.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestStore_SubscribeNotifiesOnWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var keys []string
	store.Subscribe(func(key string) {
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
	})

	if err := store.Set(ctx, KeyUpgradeInfo, "pro"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete(ctx, KeyUpgradeInfo); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 2 || keys[0] != KeyUpgradeInfo || keys[1] != KeyUpgradeInfo {
		t.Errorf("Expected two notifications for %s, got %v", KeyUpgradeInfo, keys)
	}
}

func TestStore_ClosedStoreRejectsOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := store.Set(ctx, "k", "v"); !errors.Is(err, interfaces.ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed, got %v", err)
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("Second Close should succeed, got %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.db")
	ctx := context.Background()

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Save(ctx, &interfaces.Profile{ID: "user-9", Username: "ren"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	sess, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sess.UserID != "user-9" || sess.Username != "ren" {
		t.Errorf("Expected persisted identity, got %+v", sess)
	}
}
