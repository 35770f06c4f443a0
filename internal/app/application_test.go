package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"studybrain/internal/config"
	"studybrain/pkg/interfaces"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Session.Path = filepath.Join(t.TempDir(), "session.db")

	application, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	t.Cleanup(func() { application.Close() })
	return application
}

func TestApp_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "not a url"

	if _, err := New(cfg, nil); err == nil {
		t.Error("Expected configuration rejection")
	}
}

func TestApp_IdentityFromStore(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	err := application.Session.Save(ctx, &interfaces.Profile{ID: "u42", Username: "kim"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	identity, err := application.Identity(ctx)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if identity.UserID != "u42" || identity.Username != "kim" {
		t.Errorf("Unexpected identity: %+v", identity)
	}
}

func TestApp_IdentityGuestFallback(t *testing.T) {
	application := newTestApp(t)

	identity, err := application.Identity(context.Background())
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}

	if !strings.HasPrefix(identity.UserID, "guest-") {
		t.Errorf("Expected minted guest ID, got %q", identity.UserID)
	}
	if identity.Username != "User" {
		t.Errorf("Expected default username, got %q", identity.Username)
	}
}

func TestApp_GuestIdentityIsNotPersisted(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	first, err := application.Identity(ctx)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	second, err := application.Identity(ctx)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}

	// Guests are transient: each lookup mints a fresh ID.
	if first.UserID == second.UserID {
		t.Errorf("Guest identity should not persist, got %q twice", first.UserID)
	}
}

func TestApp_DashboardLoaderIsWired(t *testing.T) {
	application := newTestApp(t)
	if application.Dashboard() == nil {
		t.Error("Expected a dashboard loader")
	}
}
