package services

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

// ProfileService caches the signed-in user. Every self-mutation is followed
// by a full re-read; server responses are never merged into the snapshot.
type ProfileService struct {
	users  UserAPI
	logger *logging.Logger

	mu      sync.RWMutex
	current *models.User
}

func NewProfileService(users UserAPI, logger *logging.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		logger: logging.OrDefault(logger).Component("profile"),
	}
}

// Load fetches the profile after login or at startup with a restored session.
func (s *ProfileService) Load(ctx context.Context) (*models.User, error) {
	return s.Refresh(ctx)
}

// Refresh replaces the snapshot. On failure the snapshot is cleared.
func (s *ProfileService) Refresh(ctx context.Context) (*models.User, error) {
	user, err := s.users.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return nil, &FetchError{Op: "profile", Err: err}
	}

	s.mu.Lock()
	s.current = user
	s.mu.Unlock()

	s.logger.Debug("Profile loaded", map[string]interface{}{"user_id": user.ID})
	return copyUser(user), nil
}

// Current returns a copy of the cached user, or nil.
func (s *ProfileService) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.current)
}

// CurrentID returns the cached user's ID and whether one is loaded.
func (s *ProfileService) CurrentID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return 0, false
	}
	return s.current.ID, true
}

func (s *ProfileService) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func (s *ProfileService) UploadPhoto(ctx context.Context, filename string, body io.Reader) (*models.User, error) {
	if err := s.users.UploadPhoto(ctx, models.Upload{Filename: filename, Body: body}); err != nil {
		return nil, &MutationError{Op: "upload photo", Err: err}
	}
	return s.Refresh(ctx)
}

func (s *ProfileService) UpdateFavoriteArtist(ctx context.Context, artistName string) (*models.User, error) {
	name := strings.TrimSpace(artistName)
	if err := s.users.UpdateFavoriteArtist(ctx, name); err != nil {
		return nil, &MutationError{Op: "update favorite artist", Err: err}
	}
	return s.Refresh(ctx)
}

// RefreshAfterSpotifyConnect re-reads the profile once the OAuth redirect
// has completed in the browser.
func (s *ProfileService) RefreshAfterSpotifyConnect(ctx context.Context) (*models.User, error) {
	return s.Refresh(ctx)
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, &FetchError{Op: "user " + username, Err: err}
	}
	return user, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, &FetchError{Op: "user by id", Err: err}
	}
	return user, nil
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
