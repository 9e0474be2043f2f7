package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

// SpotifyExemptPaths answer 401 when the user has not linked Spotify; that
// must not end the fanbase session.
var SpotifyExemptPaths = []string{
	"/spotify/top-artists",
	"/spotify/search-artists",
	"/spotify/artist/",
}

func (c *Client) SpotifyLogin(ctx context.Context, redirectURL string) (*models.SpotifyLogin, error) {
	var login models.SpotifyLogin
	if err := c.getJSON(ctx, "/spotify/login", url.Values{"redirect_url": {redirectURL}}, &login); err != nil {
		return nil, err
	}
	return &login, nil
}

func (c *Client) TopArtists(ctx context.Context) ([]models.Artist, error) {
	return c.listArtists(ctx, "/spotify/top-artists", nil)
}

func (c *Client) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	return c.listArtists(ctx, "/spotify/search-artists", url.Values{"q": {query}})
}

func (c *Client) listArtists(ctx context.Context, path string, query url.Values) ([]models.Artist, error) {
	var artists []models.Artist
	if err := c.getJSON(ctx, path, query, &artists); err != nil {
		return nil, err
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	return artists, nil
}

func (c *Client) Artist(ctx context.Context, id string) (*models.Artist, error) {
	var artist models.Artist
	if err := c.getJSON(ctx, "/spotify/artist/"+url.PathEscape(id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (c *Client) DisconnectSpotify(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodDelete, "/spotify/disconnect", nil, nil)
}
