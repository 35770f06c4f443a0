package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studybrain/internal/api"
	"studybrain/internal/config"
	"studybrain/internal/dashboard"
	"studybrain/internal/group"
	"studybrain/internal/realtime"
	"studybrain/internal/session"
	"studybrain/pkg/types"
)

// App wires the client components together: configuration, the persisted
// session store, the REST client, and on demand a collaboration session per
// group. Initialization order is session store first, REST client second;
// realtime channels are opened lazily per group view.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	Session *session.Store
	API     *api.Client
}

// New validates the configuration and brings up the foundation components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := session.Open(cfg.Session.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		Session: store,
		API:     api.NewClient(cfg.API, logger),
	}, nil
}

// Identity returns the cached identity from the session store. When no
// identity is cached a transient guest identity is minted so the client can
// still join public rooms.
func (a *App) Identity(ctx context.Context) (*types.Session, error) {
	sess, err := a.Session.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached identity: %w", err)
	}

	if sess.UserID == "" {
		sess.UserID = "guest-" + uuid.New().String()[:8]
		sess.Username = "User"
		a.logger.Info("no cached identity, using guest", zap.String("userId", sess.UserID))
	}

	return sess, nil
}

// OpenCollab loads a group and starts its collaboration session: REST state
// first, then the realtime channel for the group room.
func (a *App) OpenCollab(ctx context.Context, groupID string) (*group.Collab, error) {
	identity, err := a.Identity(ctx)
	if err != nil {
		return nil, err
	}

	channel := realtime.NewChannel(a.cfg.Realtime, types.JoinRoom{
		GroupID:  groupID,
		UserID:   identity.UserID,
		Username: identity.Username,
	}, a.logger)

	collab := group.NewCollab(a.API, channel, groupID, identity.UserID, identity.Username, a.logger)

	if err := collab.Load(ctx); err != nil {
		return nil, err
	}
	if err := collab.Start(ctx); err != nil {
		return nil, err
	}

	return collab, nil
}

// Dashboard returns a loader for the parallel page reads.
func (a *App) Dashboard() *dashboard.Loader {
	return dashboard.NewLoader(a.API, a.logger)
}

// Close releases the foundation components.
func (a *App) Close() error {
	return a.Session.Close()
}
