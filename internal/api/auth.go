package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

// Login exchanges credentials for a bearer token. The request carries no
// bearer, so a 401 here means bad credentials, not an expired session.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Login)
	form.Set("password", creds.Password)

	var token models.TokenResponse
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		public:      true,
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &Error{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusOK, Err: fmt.Errorf("%w: missing access_token", ErrMalformedResponse)}
	}
	return &token, nil
}
