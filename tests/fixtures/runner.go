package fixtures

import (
	"context"
	"testing"
	"time"

	"studybrain/internal/api"
	"studybrain/internal/config"
	"studybrain/internal/group"
	"studybrain/internal/realtime"
	"studybrain/pkg/types"
)

// ScenarioRunner wires a fake backend and a fake realtime hub together and
// hands out fully loaded collaboration sessions against them. Everything is
// torn down through t.Cleanup.
type ScenarioRunner struct {
	Backend  *FakeBackend
	Realtime *FakeRealtimeServer

	t *testing.T
}

// NewScenarioRunner starts both fakes.
func NewScenarioRunner(t *testing.T) *ScenarioRunner {
	t.Helper()
	runner := &ScenarioRunner{
		Backend:  NewFakeBackend(),
		Realtime: NewFakeRealtimeServer(),
		t:        t,
	}
	t.Cleanup(runner.Backend.Close)
	t.Cleanup(runner.Realtime.Close)
	return runner
}

// APIClient builds a REST client against the fake backend.
func (r *ScenarioRunner) APIClient() *api.Client {
	return api.NewClient(&config.APIConfig{
		BaseURL: r.Backend.URL(),
		Timeout: 5 * time.Second,
	}, nil)
}

// Channel builds a realtime channel against the fake hub for one viewer.
func (r *ScenarioRunner) Channel(groupID, userID, username string) *realtime.Channel {
	return realtime.NewChannel(&config.RealtimeConfig{
		URL:          r.Realtime.URL(),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   64,
	}, types.JoinRoom{GroupID: groupID, UserID: userID, Username: username}, nil)
}

// OpenCollab builds, loads and starts one collaboration session. The
// session is closed during cleanup.
func (r *ScenarioRunner) OpenCollab(ctx context.Context, groupID, userID, username string) *group.Collab {
	r.t.Helper()

	collab := group.NewCollab(r.APIClient(), r.Channel(groupID, userID, username), groupID, userID, username, nil)
	r.t.Cleanup(func() { collab.Close() })

	if err := collab.Load(ctx); err != nil {
		r.t.Fatalf("Failed to load collaboration session for %s: %v", userID, err)
	}
	if err := collab.Start(ctx); err != nil {
		r.t.Fatalf("Failed to start collaboration session for %s: %v", userID, err)
	}
	return collab
}

// WaitFor polls cond until it holds or the deadline passes.
func WaitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}
