package models

import "strings"

type User struct {
	ID               int64   `json:"id"`
	Username         string  `json:"username"`
	Name             string  `json:"nome,omitempty"`
	Email            string  `json:"email,omitempty"`
	FavoriteArtist   *string `json:"favorite_artist,omitempty"`
	UserPhotoURL     *string `json:"user_photo_url,omitempty"`
	SpotifyUserToken *string `json:"spotify_user_token,omitempty"`
}

// HasSpotify reports whether the user has linked a Spotify account.
func (u *User) HasSpotify() bool {
	return u != nil && u.SpotifyUserToken != nil && *u.SpotifyUserToken != ""
}

// Matches reports whether query is a case-insensitive substring of the
// username or display name.
func (u User) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Username), q) ||
		strings.Contains(strings.ToLower(u.Name), q)
}

// Credentials are exchanged for a bearer token. Login accepts a username or an e-mail.
type Credentials struct {
	Login    string
	Password string
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type FavoriteArtistParams struct {
	ArtistName string `json:"artist_name"`
}
