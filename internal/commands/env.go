package commands

import (
	"fmt"
	"log/slog"
	"time"

	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/tokenstore"
)

// Env carries what every command may need. The session is built on first
// use so that help and version work without any settings.
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	// Redirect shows identity-provider pages to the user.
	Redirect auth.Redirector

	// Settings are loaded from the environment when nil.
	Settings *config.Settings

	// Storage overrides the session storage selected by Settings.
	Storage tokenstore.Storage

	// Now overrides the wall clock used for token expiry.
	Now func() time.Time

	flow *auth.Flow
}

// Session returns the auth flow over the configured token storage.
func (e *Env) Session() (*auth.Flow, error) {
	if e.flow != nil {
		return e.flow, nil
	}

	if e.Settings == nil {
		s, err := e.Config.Load()
		if err != nil {
			return nil, err
		}
		e.Settings = s
	}
	if err := e.Settings.Validate(); err != nil {
		return nil, err
	}

	storage := e.Storage
	if storage == nil {
		switch e.Settings.SessionStore {
		case config.StoreMemory:
			storage = tokenstore.NewMemoryStorage()
		default:
			fs, err := tokenstore.OpenFileStorage(e.Config.SessionPath())
			if err != nil {
				return nil, fmt.Errorf("failed to open session: %w", err)
			}
			e.logger().Debug("session file opened", "path", fs.Path())
			storage = fs
		}
		e.Storage = storage
	}

	var opts []tokenstore.Option
	if e.Now != nil {
		opts = append(opts, tokenstore.WithClock(e.Now))
	}
	store := tokenstore.New(storage, opts...)

	e.flow = auth.NewFlow(e.Settings.Provider(), store, e.Redirect, e.logger())
	return e.flow, nil
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		e.Logger = logging.Discard()
	}
	return e.Logger
}

// Quiet reports whether informational output is suppressed.
func (e *Env) Quiet() bool {
	return e.Config != nil && e.Config.Quiet
}
