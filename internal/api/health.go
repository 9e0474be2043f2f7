package api

import (
	"context"
	"net/http"
)

// Ping reports whether the backend answers HTTP at all. Any response,
// including an error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodGet, path: "/", public: true}, nil)
	if err == nil || !IsNetwork(err) {
		return nil
	}
	return err
}
