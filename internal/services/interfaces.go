package services

import (
	"context"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

// AuthAPI exchanges credentials for a bearer token.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
}

// UserAPI defines the backend calls about user profiles.
type UserAPI interface {
	Me(ctx context.Context) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UploadPhoto(ctx context.Context, file models.Upload) error
	UpdateFavoriteArtist(ctx context.Context, artistName string) error
}

// FriendAPI defines the backend calls behind the relationship workflow.
type FriendAPI interface {
	SendFriendRequest(ctx context.Context, receiverID int64) (*models.FriendRequest, error)
	SentFriendRequests(ctx context.Context) ([]models.FriendRequest, error)
	ReceivedFriendRequests(ctx context.Context) ([]models.FriendRequest, error)
	RespondToFriendRequest(ctx context.Context, requestID int64, response models.FriendResponse) error
	Friends(ctx context.Context) ([]models.User, error)
	RemoveFriend(ctx context.Context, friendID int64) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// NotificationAPI defines the backend calls behind the notification feed.
type NotificationAPI interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// SpotifyAPI defines the backend calls proxied to Spotify.
type SpotifyAPI interface {
	SpotifyLogin(ctx context.Context, redirectURL string) (*models.SpotifyLogin, error)
	TopArtists(ctx context.Context) ([]models.Artist, error)
	SearchArtists(ctx context.Context, query string) ([]models.Artist, error)
	Artist(ctx context.Context, id string) (*models.Artist, error)
	DisconnectSpotify(ctx context.Context) error
}

// PostAPI defines the backend calls for artist posts.
type PostAPI interface {
	PostsByArtist(ctx context.Context, artistID string, limit int) ([]models.Post, error)
	CreatePost(ctx context.Context, artistID, content string, images []models.Upload) (*models.Post, error)
	ToggleLike(ctx context.Context, postID string) (*models.LikeResult, error)
}

// TokenStore persists the session token between runs.
// Load returns ErrNoStoredToken when nothing has been saved.
type TokenStore interface {
	Load(ctx context.Context) (*models.StoredToken, error)
	Save(ctx context.Context, token models.StoredToken) error
	Clear(ctx context.Context) error
}

// SelfProvider exposes the signed-in user's snapshot.
type SelfProvider interface {
	Current() *models.User
}
