package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var items []models.Notification
	if err := c.getJSON(ctx, "/friends/notifications", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodPut, "/friends/notifications/"+strconv.FormatInt(id, 10)+"/read", nil, nil)
}
