package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/fanbase/internal/api"
	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

// MusicService wraps the Spotify endpoints. Connecting happens in a browser;
// this service only hands out the authorization URL and refreshes the
// profile afterwards.
type MusicService struct {
	spotify SpotifyAPI
	profile *ProfileService
	logger  *logging.Logger
}

func NewMusicService(spotify SpotifyAPI, profile *ProfileService, logger *logging.Logger) *MusicService {
	return &MusicService{
		spotify: spotify,
		profile: profile,
		logger:  logging.OrDefault(logger).Component("music"),
	}
}

// ConnectURL returns the Spotify authorization page for the signed-in user.
func (s *MusicService) ConnectURL(ctx context.Context, redirectURL string) (string, error) {
	login, err := s.spotify.SpotifyLogin(ctx, redirectURL)
	if err != nil {
		return "", &FetchError{Op: "spotify authorization url", Err: err}
	}
	return login.AuthURL, nil
}

func (s *MusicService) TopArtists(ctx context.Context) ([]models.Artist, error) {
	if err := s.requireLinked(); err != nil {
		return nil, err
	}
	artists, err := s.spotify.TopArtists(ctx)
	if err != nil {
		return nil, &FetchError{Op: "top artists", Err: spotifyError(err)}
	}
	return artists, nil
}

// SearchArtists returns no results for a blank query without calling the server.
func (s *MusicService) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.Artist{}, nil
	}
	if err := s.requireLinked(); err != nil {
		return nil, err
	}
	artists, err := s.spotify.SearchArtists(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "artist search", Err: spotifyError(err)}
	}
	return artists, nil
}

func (s *MusicService) Artist(ctx context.Context, id string) (*models.Artist, error) {
	artist, err := s.spotify.Artist(ctx, id)
	if err != nil {
		return nil, &FetchError{Op: "artist " + id, Err: spotifyError(err)}
	}
	return artist, nil
}

// Disconnect unlinks Spotify and re-reads the profile.
func (s *MusicService) Disconnect(ctx context.Context) (*models.User, error) {
	if err := s.spotify.DisconnectSpotify(ctx); err != nil {
		return nil, &MutationError{Op: "disconnect spotify", Err: err}
	}
	s.logger.Info("Spotify disconnected")
	return s.profile.Refresh(ctx)
}

// requireLinked fails fast when the loaded profile has no Spotify link.
// With no profile loaded the server decides.
func (s *MusicService) requireLinked() error {
	if s.profile == nil {
		return nil
	}
	if u := s.profile.Current(); u != nil && !u.HasSpotify() {
		return ErrSpotifyNotConnected
	}
	return nil
}

func spotifyError(err error) error {
	if api.StatusCode(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrSpotifyNotConnected, err)
	}
	return err
}
