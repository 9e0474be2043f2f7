// Package app wires the transport, token store and client services together
// and owns what happens when the backend ends a session.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/HammerMeetNail/fanbase/internal/api"
	"github.com/HammerMeetNail/fanbase/internal/config"
	"github.com/HammerMeetNail/fanbase/internal/database"
	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
	"github.com/HammerMeetNail/fanbase/internal/services"
)

// SignInListener is told that the user has to sign in again.
type SignInListener func(reason string)

type App struct {
	Config *config.Config
	Logger *logging.Logger

	Client        *api.Client
	Session       *services.SessionService
	Profile       *services.ProfileService
	Relationships *services.RelationshipService
	Search        *services.CandidateSearch
	Notifications *services.NotificationFeed
	Music         *services.MusicService
	Posts         *services.PostService

	closers  []func() error
	checkers map[string]HealthChecker

	mu       sync.Mutex
	onSignIn []SignInListener
}

type Option func(*options)

type options struct {
	store      services.TokenStore
	httpClient *http.Client
}

// WithTokenStore overrides the store selected by the configuration.
func WithTokenStore(store services.TokenStore) Option {
	return func(o *options) { o.store = store }
}

// WithHTTPClient overrides the transport's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New builds every component. Nothing is fetched until Start or SignIn.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	logger = logging.OrDefault(logger)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client, err := api.NewClient(api.Options{
		BaseURL:            cfg.API.BaseURL,
		HTTPClient:         o.httpClient,
		Timeout:            cfg.API.Timeout,
		RateLimit:          cfg.API.RateLimit,
		RateBurst:          cfg.API.RateBurst,
		Logger:             logger,
		UnauthorizedExempt: api.SpotifyExemptPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Client: client, checkers: make(map[string]HealthChecker)}

	store := o.store
	if store == nil {
		store, err = a.openTokenStore(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.Session = services.NewSessionService(client, store, logger)
	a.Profile = services.NewProfileService(client, logger)
	a.Relationships = services.NewRelationshipService(client, a.Profile, logger)
	a.Search = services.NewCandidateSearch(a.Relationships, cfg.Client.SearchDebounce, logger)
	a.Notifications = services.NewNotificationFeed(client, cfg.Client.PollInterval, logger)
	a.Music = services.NewMusicService(client, a.Profile, logger)
	a.Posts = services.NewPostService(client, logger)

	client.SetTokenSource(a.Session)
	client.OnUnauthorized(func(ctx context.Context, path string) {
		a.Session.ForceLogout(ctx, "unauthorized "+path)
	})
	a.Session.OnForcedLogout(a.handleForcedLogout)

	return a, nil
}

func (a *App) openTokenStore(ctx context.Context) (services.TokenStore, error) {
	cfg := a.Config
	switch cfg.Session.Store {
	case config.StoreMemory:
		return services.NewMemoryTokenStore(), nil

	case config.StoreFile:
		return services.NewFileTokenStore(cfg.Session.TokenFile, cfg.Session.Passphrase), nil

	case config.StoreRedis:
		a.Logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
		rdb, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.checkers["redis"] = rdb
		return services.NewRedisTokenStore(rdb.Client, cfg.Session.Profile), nil

	case config.StorePostgres:
		a.Logger.Info("Connecting to PostgreSQL", map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
		})
		migrator, err := database.NewMigrator(cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("creating migrator: %w", err)
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		_ = migrator.Close()

		db, err := database.NewPostgresDB(cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			db.Close()
			return nil
		})
		a.checkers["postgres"] = db
		return services.NewPostgresTokenStore(db.Pool, cfg.Session.Profile), nil
	}
	return nil, fmt.Errorf("unknown token store %q", cfg.Session.Store)
}

// OnSignInRequired registers a listener for forced logouts.
func (a *App) OnSignInRequired(fn SignInListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSignIn = append(a.onSignIn, fn)
}

// Start restores a persisted session and, when one is live, loads the
// user's state. A restored token the backend no longer accepts ends in a
// forced logout and ErrNotLoggedIn.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return err
	}
	if !a.Session.IsAuthenticated() {
		return nil
	}
	return a.loadUserState(ctx)
}

// SignIn logs in and loads the profile and relationship collections.
func (a *App) SignIn(ctx context.Context, creds models.Credentials) error {
	if err := a.Session.Login(ctx, creds); err != nil {
		return err
	}
	return a.loadUserState(ctx)
}

func (a *App) loadUserState(ctx context.Context) error {
	if _, err := a.Profile.Load(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return services.ErrNotLoggedIn
		}
		return err
	}
	if err := a.Relationships.Load(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return services.ErrNotLoggedIn
		}
		return err
	}
	return nil
}

// SignOut ends the session at the user's request.
func (a *App) SignOut(ctx context.Context) error {
	a.clearUserState()
	return a.Session.Logout(ctx)
}

// RequireSession returns ErrNotLoggedIn when no token is held.
func (a *App) RequireSession() error {
	if !a.Session.IsAuthenticated() {
		return services.ErrNotLoggedIn
	}
	return nil
}

func (a *App) handleForcedLogout(_ context.Context, reason string) {
	a.clearUserState()

	a.mu.Lock()
	listeners := append([]SignInListener(nil), a.onSignIn...)
	a.mu.Unlock()

	a.Logger.Info("Sign-in required", map[string]interface{}{"reason": reason})
	for _, fn := range listeners {
		fn(reason)
	}
}

func (a *App) clearUserState() {
	a.Search.Cancel()
	a.Profile.Invalidate()
	a.Relationships.Reset()
	a.Notifications.Reset()
}

// Close releases database connections opened for the token store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
