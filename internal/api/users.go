package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/user/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/user/id/"+strconv.FormatInt(id, 10), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	if err := c.getJSON(ctx, "/friends/search", url.Values{"q": {query}}, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (c *Client) UploadPhoto(ctx context.Context, file models.Upload) error {
	return c.postMultipart(ctx, "/user/upload-photo", nil, "file", []models.Upload{file}, nil)
}

func (c *Client) UpdateFavoriteArtist(ctx context.Context, artistName string) error {
	return c.sendJSON(ctx, http.MethodPut, "/user/me/favorite-artist", models.FavoriteArtistParams{ArtistName: artistName}, nil)
}
