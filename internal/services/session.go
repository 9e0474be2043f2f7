package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

// ForcedLogoutListener is told when the backend rejected the session.
type ForcedLogoutListener func(ctx context.Context, reason string)

// SessionService owns the bearer token. It is the only writer of the token;
// the API client reads it through CurrentToken on every request.
type SessionService struct {
	auth   AuthAPI
	store  TokenStore
	logger *logging.Logger
	now    func() time.Time

	mu        sync.RWMutex
	token     string
	listeners []ForcedLogoutListener
}

func NewSessionService(auth AuthAPI, store TokenStore, logger *logging.Logger) *SessionService {
	return &SessionService{
		auth:   auth,
		store:  store,
		logger: logging.OrDefault(logger).Component("session"),
		now:    time.Now,
	}
}

// Login exchanges credentials for a token and persists it. State is left
// untouched on any failure.
func (s *SessionService) Login(ctx context.Context, creds models.Credentials) error {
	if strings.TrimSpace(creds.Login) == "" || creds.Password == "" {
		return &AuthError{Err: ErrMissingCredentials}
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.Info("Login rejected", map[string]interface{}{"login": creds.Login, "error": err.Error()})
		return &AuthError{Err: err}
	}

	stored := models.StoredToken{Token: resp.AccessToken, SavedAt: s.now().UTC()}
	if exp, ok := tokenExpiry(resp.AccessToken); ok {
		if !exp.After(s.now()) {
			s.logger.Warn("Login returned an expired token", map[string]interface{}{"login": creds.Login, "expires_at": exp})
			return &AuthError{Err: ErrTokenExpired}
		}
		stored.ExpiresAt = &exp
	}
	if err := s.store.Save(ctx, stored); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.mu.Unlock()

	s.logger.Info("Logged in", map[string]interface{}{"login": creds.Login})
	return nil
}

// Logout clears the persisted and in-memory token. Calling it while logged
// out is harmless.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasLoggedIn := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to clear stored session")
		return fmt.Errorf("clearing stored session: %w", err)
	}
	if wasLoggedIn {
		s.logger.Info("Logged out")
	}
	return nil
}

func (s *SessionService) IsAuthenticated() bool {
	return s.CurrentToken() != ""
}

// CurrentToken returns the bearer token, or "" when logged out.
func (s *SessionService) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionService) Snapshot() models.Session {
	token := s.CurrentToken()
	return models.Session{Token: token, IsLoggedIn: token != ""}
}

// Restore loads a previously persisted token. A JWT whose exp has passed is
// discarded instead of being replayed into a certain 401.
func (s *SessionService) Restore(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoStoredToken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading stored session: %w", err)
	}
	if stored.Token == "" {
		return nil
	}

	exp, ok := tokenExpiry(stored.Token)
	if !ok && stored.ExpiresAt != nil {
		exp, ok = *stored.ExpiresAt, true
	}
	if ok && !exp.After(s.now()) {
		s.logger.Info("Stored session expired", map[string]interface{}{"expired_at": exp.UTC().Format(time.RFC3339)})
		if err := s.store.Clear(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to clear expired session")
		}
		return nil
	}

	s.mu.Lock()
	s.token = stored.Token
	s.mu.Unlock()
	return nil
}

// Expiry returns the exp claim of the current token when it is a JWT.
func (s *SessionService) Expiry() (time.Time, bool) {
	token := s.CurrentToken()
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

// OnForcedLogout registers a listener for sessions ended by the backend.
func (s *SessionService) OnForcedLogout(fn ForcedLogoutListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// ForceLogout ends the session after the backend rejected its token.
// Listeners run only for the call that actually cleared a live session, so a
// burst of concurrent 401s produces one sign-in prompt.
func (s *SessionService) ForceLogout(ctx context.Context, reason string) {
	s.mu.Lock()
	wasLoggedIn := s.token != ""
	s.token = ""
	listeners := append([]ForcedLogoutListener(nil), s.listeners...)
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to clear stored session")
	}
	if !wasLoggedIn {
		return
	}

	s.logger.Warn("Session ended by server", map[string]interface{}{"reason": reason})
	for _, fn := range listeners {
		fn(ctx, reason)
	}
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
