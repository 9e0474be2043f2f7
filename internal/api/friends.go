package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *Client) SendFriendRequest(ctx context.Context, receiverID int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := c.sendJSON(ctx, http.MethodPost, "/friends/request/"+strconv.FormatInt(receiverID, 10), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) SentFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	return c.listRequests(ctx, "/friends/requests/sent")
}

func (c *Client) ReceivedFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	return c.listRequests(ctx, "/friends/requests")
}

func (c *Client) listRequests(ctx context.Context, path string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := c.getJSON(ctx, path, nil, &reqs); err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []models.FriendRequest{}
	}
	return reqs, nil
}

func (c *Client) RespondToFriendRequest(ctx context.Context, requestID int64, response models.FriendResponse) error {
	path := "/friends/request/" + strconv.FormatInt(requestID, 10) + "/" + string(response)
	return c.sendJSON(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) Friends(ctx context.Context) ([]models.User, error) {
	var friends []models.User
	if err := c.getJSON(ctx, "/friends/", nil, &friends); err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []models.User{}
	}
	return friends, nil
}

func (c *Client) RemoveFriend(ctx context.Context, friendID int64) error {
	return c.sendJSON(ctx, http.MethodDelete, "/friends/"+strconv.FormatInt(friendID, 10), nil, nil)
}
