// Package api is the authenticated HTTP transport to the fanbase backend.
//
// Every request goes through Client.do, which attaches the bearer token and a
// request ID, applies the client-side rate limit, logs the exchange, and turns
// a 401 on an authenticated call into a single forced-logout callback.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	CurrentToken() string
}

// UnauthorizedHandler is called once for every authenticated request that the
// backend rejects with 401.
type UnauthorizedHandler func(ctx context.Context, path string)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables
	RateBurst  int
	Logger     *logging.Logger
	// UnauthorizedExempt lists path prefixes whose 401 does not mean the
	// session is invalid (Spotify endpoints answer 401 when no account is linked).
	UnauthorizedExempt []string
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
	exempt  []string

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler

	newRequestID func() string
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		limiter:      limiter,
		logger:       logging.OrDefault(opts.Logger).Component("api"),
		exempt:       opts.UnauthorizedExempt,
		newRequestID: func() string { return uuid.New().String() },
	}, nil
}

// SetTokenSource sets where bearer tokens come from.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers the forced-logout handler.
func (c *Client) OnUnauthorized(fn UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// BaseURL returns the backend root, e.g. to build photo URLs.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool // no bearer, no forced logout
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := request{method: method, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField string, files []models.Upload, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("writing form field %s: %w", k, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(fileField, f.Filename)
		if err != nil {
			return fmt.Errorf("creating form file: %w", err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("copying %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	// r.path segments are already escaped by the endpoint helpers.
	u, err := url.Parse(c.baseURL.String() + r.path)
	if err != nil {
		return fmt.Errorf("building url: %w", err)
	}
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	requestID := c.newRequestID()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	token := ""
	if !r.public {
		token = c.currentToken()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("HTTP request failed", map[string]interface{}{
			"method":      r.method,
			"path":        r.path,
			"duration_ms": duration.Milliseconds(),
			"request_id":  requestID,
			"error":       err.Error(),
		})
		return &Error{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	c.logExchange(r, resp.StatusCode, duration, requestID)

	if resp.StatusCode == http.StatusUnauthorized && !r.public && !c.isExempt(r.path) {
		detail := readDetail(resp.Body)
		c.forceLogout(ctx, r.path)
		return &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Detail: detail, Err: ErrUnauthorized}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.CurrentToken()
}

func (c *Client) forceLogout(ctx context.Context, path string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	c.logger.Warn("Authorization rejected, ending session", map[string]interface{}{"path": path})
	if fn != nil {
		fn(ctx, path)
	}
}

func (c *Client) isExempt(path string) bool {
	for _, prefix := range c.exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) logExchange(r request, status int, duration time.Duration, requestID string) {
	fields := map[string]interface{}{
		"method":      r.method,
		"path":        r.path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"request_id":  requestID,
	}
	if len(r.query) > 0 {
		fields["query"] = r.query.Encode()
	}

	switch {
	case status >= 500:
		c.logger.Error("HTTP request", fields)
	case status >= 400:
		c.logger.Warn("HTTP request", fields)
	default:
		c.logger.Debug("HTTP request", fields)
	}
}

// readDetail extracts the backend's {"detail": ...} message, falling back to the raw body.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(data))
}
