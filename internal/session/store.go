package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"studybrain/pkg/interfaces"
	"studybrain/pkg/types"
)

// Persisted session keys. These mirror the keys every page reads on mount.
const (
	KeyUserID                      = "userId"
	KeyUsername                    = "username"
	KeyUserEmail                   = "userEmail"
	KeyUserAvatar                  = "userAvatar"
	KeyHasCompletedPersonalization = "hasCompletedPersonalization"
	KeyUserPersonalization         = "userPersonalization"

	// Ad hoc flags written by the pricing/subscription flows.
	KeyUpgradeInfo         = "upgradeInfo"
	KeySubscriptionUpdated = "subscriptionUpdated"
)

// sessionKeys is the set Clear removes and Load reads. Order matters for
// Save: identity first so a crash mid-save still leaves a usable identity.
var sessionKeys = []string{
	KeyUserID,
	KeyUsername,
	KeyUserEmail,
	KeyUserAvatar,
	KeyHasCompletedPersonalization,
	KeyUserPersonalization,
}

// Store is the SQLite-backed session store. Each session key is an
// independent row; writes are deliberately not wrapped in a transaction so
// the store matches its callers' expectations: wholesale overwrite on save,
// per-key independence, no cross-key atomicity.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu          sync.RWMutex
	closed      bool
	subscribers []func(key string)
}

// Open opens (and if needed creates) the session database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS session_values (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Save extracts known fields from the profile with fallbacks and writes
// each as an independent key. A crash mid-save leaves a partially updated
// session; the next successful auth overwrites it wholesale.
func (s *Store) Save(ctx context.Context, profile *interfaces.Profile) error {
	if profile == nil {
		return ErrNilProfile
	}

	userID := profile.ID
	if userID == "" {
		userID = profile.LegacyID
	}

	username := profile.Username
	if username == "" {
		username = profile.FirstName
	}
	if username == "" {
		username = "User"
	}

	personalization := "{}"
	if profile.Personalization != nil {
		raw, err := json.Marshal(profile.Personalization)
		if err != nil {
			return fmt.Errorf("failed to encode personalization: %w", err)
		}
		personalization = string(raw)
	}

	values := []struct {
		key   string
		value string
	}{
		{KeyUserID, userID},
		{KeyUsername, username},
		{KeyUserEmail, profile.Email},
		{KeyUserAvatar, profile.AvatarURL},
		{KeyHasCompletedPersonalization, boolString(profile.HasCompletedPersonalization)},
		{KeyUserPersonalization, personalization},
	}

	for _, v := range values {
		if err := s.Set(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("failed to save session key %s: %w", v.key, err)
		}
	}

	s.logger.Debug("session saved", zap.String("userId", userID), zap.String("username", username))
	return nil
}

// Load returns the stored session with defaults for missing keys. A fresh
// store yields an empty session, not an error; callers use this as the
// silent identity fallback when the live identity check fails.
func (s *Store) Load(ctx context.Context) (*types.Session, error) {
	sess := &types.Session{}

	for _, key := range sessionKeys {
		value, err := s.Get(ctx, key)
		if err != nil {
			if errors.Is(err, interfaces.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}

		switch key {
		case KeyUserID:
			sess.UserID = value
		case KeyUsername:
			sess.Username = value
		case KeyUserEmail:
			sess.Email = value
		case KeyUserAvatar:
			sess.AvatarURL = value
		case KeyHasCompletedPersonalization:
			sess.HasCompletedPersonalization = value == "true"
		case KeyUserPersonalization:
			var p map[string]string
			if err := json.Unmarshal([]byte(value), &p); err == nil {
				sess.Personalization = p
			}
		}
	}

	return sess, nil
}

// Clear deletes all known session keys plus the ad hoc flags. Idempotent:
// absent keys are not an error.
func (s *Store) Clear(ctx context.Context) error {
	keys := append(append([]string{}, sessionKeys...), KeyUpgradeInfo, KeySubscriptionUpdated)
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear session key %s: %w", key, err)
		}
	}
	s.logger.Debug("session cleared")
	return nil
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session_values WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a single key and notifies subscribers.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session_values (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}

	s.notify(key)
	return nil
}

// Delete removes a single key and notifies subscribers. Deleting an absent
// key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_values WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete session key %s: %w", key, err)
	}

	s.notify(key)
	return nil
}

// Subscribe registers a callback invoked after every local write or delete.
// This is the change notification subscription pages listen to for
// refreshing subscription status.
func (s *Store) Subscribe(fn func(key string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return interfaces.ErrStoreClosed
	}
	return nil
}

func (s *Store) notify(key string) {
	s.mu.RLock()
	subs := make([]func(string), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(key)
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
