package models

import "time"

// Session is the authenticated-client state. IsLoggedIn is true exactly when Token is set.
type Session struct {
	Token      string `json:"-"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// StoredToken is what a token store persists between runs.
type StoredToken struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	SavedAt   time.Time  `json:"saved_at"`
}
