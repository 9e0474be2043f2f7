package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *Client) PostsByArtist(ctx context.Context, artistID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	query := url.Values{"pagination": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/posts/artist/"+url.PathEscape(artistID), query, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, artistID, content string, images []models.Upload) (*models.Post, error) {
	fields := map[string]string{
		"artist_id": artistID,
		"content":   content,
	}
	var post models.Post
	if err := c.postMultipart(ctx, "/posts/create", fields, "images", images, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ToggleLike(ctx context.Context, postID string) (*models.LikeResult, error) {
	var result models.LikeResult
	if err := c.sendJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
