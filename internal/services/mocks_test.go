package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

var errNotImplemented = errors.New("not implemented")

func testLogger() *logging.Logger {
	return logging.New().SetOutput(io.Discard)
}

type mockAuthAPI struct {
	LoginFunc func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, errNotImplemented
}

type mockUserAPI struct {
	MeFunc                   func(ctx context.Context) (*models.User, error)
	UserByUsernameFunc       func(ctx context.Context, username string) (*models.User, error)
	UserByIDFunc             func(ctx context.Context, id int64) (*models.User, error)
	UploadPhotoFunc          func(ctx context.Context, file models.Upload) error
	UpdateFavoriteArtistFunc func(ctx context.Context, artistName string) error
}

func (m *mockUserAPI) Me(ctx context.Context) (*models.User, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockUserAPI) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.UserByUsernameFunc != nil {
		return m.UserByUsernameFunc(ctx, username)
	}
	return nil, errNotImplemented
}

func (m *mockUserAPI) UserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.UserByIDFunc != nil {
		return m.UserByIDFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockUserAPI) UploadPhoto(ctx context.Context, file models.Upload) error {
	if m.UploadPhotoFunc != nil {
		return m.UploadPhotoFunc(ctx, file)
	}
	return errNotImplemented
}

func (m *mockUserAPI) UpdateFavoriteArtist(ctx context.Context, artistName string) error {
	if m.UpdateFavoriteArtistFunc != nil {
		return m.UpdateFavoriteArtistFunc(ctx, artistName)
	}
	return errNotImplemented
}

type mockFriendAPI struct {
	SendFriendRequestFunc      func(ctx context.Context, receiverID int64) (*models.FriendRequest, error)
	SentFriendRequestsFunc     func(ctx context.Context) ([]models.FriendRequest, error)
	ReceivedFriendRequestsFunc func(ctx context.Context) ([]models.FriendRequest, error)
	RespondToFriendRequestFunc func(ctx context.Context, requestID int64, response models.FriendResponse) error
	FriendsFunc                func(ctx context.Context) ([]models.User, error)
	RemoveFriendFunc           func(ctx context.Context, friendID int64) error
	SearchUsersFunc            func(ctx context.Context, query string) ([]models.User, error)
}

func (m *mockFriendAPI) SendFriendRequest(ctx context.Context, receiverID int64) (*models.FriendRequest, error) {
	if m.SendFriendRequestFunc != nil {
		return m.SendFriendRequestFunc(ctx, receiverID)
	}
	return nil, errNotImplemented
}

func (m *mockFriendAPI) SentFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	if m.SentFriendRequestsFunc != nil {
		return m.SentFriendRequestsFunc(ctx)
	}
	return []models.FriendRequest{}, nil
}

func (m *mockFriendAPI) ReceivedFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	if m.ReceivedFriendRequestsFunc != nil {
		return m.ReceivedFriendRequestsFunc(ctx)
	}
	return []models.FriendRequest{}, nil
}

func (m *mockFriendAPI) RespondToFriendRequest(ctx context.Context, requestID int64, response models.FriendResponse) error {
	if m.RespondToFriendRequestFunc != nil {
		return m.RespondToFriendRequestFunc(ctx, requestID, response)
	}
	return errNotImplemented
}

func (m *mockFriendAPI) Friends(ctx context.Context) ([]models.User, error) {
	if m.FriendsFunc != nil {
		return m.FriendsFunc(ctx)
	}
	return []models.User{}, nil
}

func (m *mockFriendAPI) RemoveFriend(ctx context.Context, friendID int64) error {
	if m.RemoveFriendFunc != nil {
		return m.RemoveFriendFunc(ctx, friendID)
	}
	return errNotImplemented
}

func (m *mockFriendAPI) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	if m.SearchUsersFunc != nil {
		return m.SearchUsersFunc(ctx, query)
	}
	return nil, errNotImplemented
}

type mockNotificationAPI struct {
	NotificationsFunc        func(ctx context.Context) ([]models.Notification, error)
	MarkNotificationReadFunc func(ctx context.Context, id int64) error
}

func (m *mockNotificationAPI) Notifications(ctx context.Context) ([]models.Notification, error) {
	if m.NotificationsFunc != nil {
		return m.NotificationsFunc(ctx)
	}
	return []models.Notification{}, nil
}

func (m *mockNotificationAPI) MarkNotificationRead(ctx context.Context, id int64) error {
	if m.MarkNotificationReadFunc != nil {
		return m.MarkNotificationReadFunc(ctx, id)
	}
	return nil
}

type mockSpotifyAPI struct {
	SpotifyLoginFunc      func(ctx context.Context, redirectURL string) (*models.SpotifyLogin, error)
	TopArtistsFunc        func(ctx context.Context) ([]models.Artist, error)
	SearchArtistsFunc     func(ctx context.Context, query string) ([]models.Artist, error)
	ArtistFunc            func(ctx context.Context, id string) (*models.Artist, error)
	DisconnectSpotifyFunc func(ctx context.Context) error
}

func (m *mockSpotifyAPI) SpotifyLogin(ctx context.Context, redirectURL string) (*models.SpotifyLogin, error) {
	if m.SpotifyLoginFunc != nil {
		return m.SpotifyLoginFunc(ctx, redirectURL)
	}
	return nil, errNotImplemented
}

func (m *mockSpotifyAPI) TopArtists(ctx context.Context) ([]models.Artist, error) {
	if m.TopArtistsFunc != nil {
		return m.TopArtistsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockSpotifyAPI) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, query)
	}
	return nil, errNotImplemented
}

func (m *mockSpotifyAPI) Artist(ctx context.Context, id string) (*models.Artist, error) {
	if m.ArtistFunc != nil {
		return m.ArtistFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSpotifyAPI) DisconnectSpotify(ctx context.Context) error {
	if m.DisconnectSpotifyFunc != nil {
		return m.DisconnectSpotifyFunc(ctx)
	}
	return errNotImplemented
}

type mockPostAPI struct {
	PostsByArtistFunc func(ctx context.Context, artistID string, limit int) ([]models.Post, error)
	CreatePostFunc    func(ctx context.Context, artistID, content string, images []models.Upload) (*models.Post, error)
	ToggleLikeFunc    func(ctx context.Context, postID string) (*models.LikeResult, error)
}

func (m *mockPostAPI) PostsByArtist(ctx context.Context, artistID string, limit int) ([]models.Post, error) {
	if m.PostsByArtistFunc != nil {
		return m.PostsByArtistFunc(ctx, artistID, limit)
	}
	return nil, errNotImplemented
}

func (m *mockPostAPI) CreatePost(ctx context.Context, artistID, content string, images []models.Upload) (*models.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, artistID, content, images)
	}
	return nil, errNotImplemented
}

func (m *mockPostAPI) ToggleLike(ctx context.Context, postID string) (*models.LikeResult, error) {
	if m.ToggleLikeFunc != nil {
		return m.ToggleLikeFunc(ctx, postID)
	}
	return nil, errNotImplemented
}

type mockTokenStore struct {
	LoadFunc  func(ctx context.Context) (*models.StoredToken, error)
	SaveFunc  func(ctx context.Context, token models.StoredToken) error
	ClearFunc func(ctx context.Context) error
}

func (m *mockTokenStore) Load(ctx context.Context) (*models.StoredToken, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, ErrNoStoredToken
}

func (m *mockTokenStore) Save(ctx context.Context, token models.StoredToken) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenStore) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

type staticSelf struct {
	user *models.User
}

func (s staticSelf) Current() *models.User {
	return s.user
}

// fakeTimer is a debounce timer fired by hand.
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fireActive runs every timer that has not been stopped.
func (c *fakeClock) fireActive() int {
	c.mu.Lock()
	var active []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			active = append(active, t)
		}
	}
	c.mu.Unlock()
	for _, t := range active {
		t.fn()
	}
	return len(active)
}
