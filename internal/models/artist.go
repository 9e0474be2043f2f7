package models

// Artist is a Spotify artist as formatted by the backend.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Followers  int      `json:"followers"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Photo      *string  `json:"photo,omitempty"`
}

type SpotifyLogin struct {
	AuthURL string `json:"auth_url"`
}
