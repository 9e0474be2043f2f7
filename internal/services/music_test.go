package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/HammerMeetNail/fanbase/internal/api"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

func linkedProfile(t *testing.T, linked bool) *ProfileService {
	t.Helper()
	svc := NewProfileService(&mockUserAPI{
		MeFunc: func(ctx context.Context) (*models.User, error) {
			u := &models.User{ID: 1}
			if linked {
				u.SpotifyUserToken = strPtr("sp-token")
			}
			return u, nil
		},
	}, testLogger())
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return svc
}

func TestMusicService_ConnectURL(t *testing.T) {
	var gotRedirect string
	svc := NewMusicService(&mockSpotifyAPI{
		SpotifyLoginFunc: func(ctx context.Context, redirectURL string) (*models.SpotifyLogin, error) {
			gotRedirect = redirectURL
			return &models.SpotifyLogin{AuthURL: "https://accounts.spotify.com/authorize?x=1"}, nil
		},
	}, linkedProfile(t, false), testLogger())

	url, err := svc.ConnectURL(context.Background(), "http://localhost:5173/profile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://accounts.spotify.com/authorize?x=1" || gotRedirect != "http://localhost:5173/profile" {
		t.Fatalf("unexpected url %q redirect %q", url, gotRedirect)
	}
}

func TestMusicService_NotLinkedShortCircuits(t *testing.T) {
	svc := NewMusicService(&mockSpotifyAPI{}, linkedProfile(t, false), testLogger())
	if _, err := svc.TopArtists(context.Background()); !errors.Is(err, ErrSpotifyNotConnected) {
		t.Fatalf("expected ErrSpotifyNotConnected, got %v", err)
	}
}

func TestMusicService_UnauthorizedMeansNotConnected(t *testing.T) {
	svc := NewMusicService(&mockSpotifyAPI{
		TopArtistsFunc: func(ctx context.Context) ([]models.Artist, error) {
			return nil, &api.Error{Status: http.StatusUnauthorized, Detail: "Spotify token expired"}
		},
	}, linkedProfile(t, true), testLogger())

	_, err := svc.TopArtists(context.Background())
	if !errors.Is(err, ErrSpotifyNotConnected) {
		t.Fatalf("expected ErrSpotifyNotConnected, got %v", err)
	}
	if api.StatusCode(err) != http.StatusUnauthorized {
		t.Fatal("expected original error kept in the chain")
	}
}

func TestMusicService_SearchArtists(t *testing.T) {
	calls := 0
	svc := NewMusicService(&mockSpotifyAPI{
		SearchArtistsFunc: func(ctx context.Context, query string) ([]models.Artist, error) {
			calls++
			return []models.Artist{{ID: "1", Name: query}}, nil
		},
	}, linkedProfile(t, true), testLogger())

	empty, err := svc.SearchArtists(context.Background(), "   ")
	if err != nil || len(empty) != 0 || calls != 0 {
		t.Fatalf("blank query must not reach the server: %v %v", empty, err)
	}
	got, err := svc.SearchArtists(context.Background(), " Radiohead ")
	if err != nil || len(got) != 1 || got[0].Name != "Radiohead" {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
}

func TestMusicService_DisconnectRefreshesProfile(t *testing.T) {
	linked := true
	profile := NewProfileService(&mockUserAPI{
		MeFunc: func(ctx context.Context) (*models.User, error) {
			u := &models.User{ID: 1}
			if linked {
				u.SpotifyUserToken = strPtr("sp")
			}
			return u, nil
		},
	}, testLogger())
	_, _ = profile.Load(context.Background())

	svc := NewMusicService(&mockSpotifyAPI{
		DisconnectSpotifyFunc: func(ctx context.Context) error {
			linked = false
			return nil
		},
	}, profile, testLogger())

	user, err := svc.Disconnect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.HasSpotify() || profile.Current().HasSpotify() {
		t.Fatal("expected profile refreshed without spotify")
	}
}

func TestMusicService_Artist(t *testing.T) {
	svc := NewMusicService(&mockSpotifyAPI{
		ArtistFunc: func(ctx context.Context, id string) (*models.Artist, error) {
			return &models.Artist{ID: id, Name: "Portishead", Genres: []string{"trip hop"}}, nil
		},
	}, nil, testLogger())

	artist, err := svc.Artist(context.Background(), "6liAMWkVf5LH7YR9yfFy1Y")
	if err != nil || artist.Name != "Portishead" {
		t.Fatalf("unexpected artist %+v %v", artist, err)
	}
}
