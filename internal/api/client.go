// Package api is the HTTP client for the EduFinanzas REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"edufinanzas/internal/logger"
)

type Config struct {
	BaseURL      string
	MediaBaseURL string
	// Zero means no client-side timeout
	Timeout time.Duration
}

// Client calls the backend. The zero token client is anonymous; WithToken
// derives an authenticated copy that shares the configuration.
type Client struct {
	cfg  Config
	log  *logger.Logger
	http *http.Client
}

func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.MediaBaseURL = strings.TrimRight(cfg.MediaBaseURL, "/")
	return &Client{
		cfg:  cfg,
		log:  log.With("client", "EduFinanzasAPI"),
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithToken returns a client that sends Authorization: Bearer <token> on
// every request. An empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return &Client{cfg: c.cfg, log: c.log, http: &http.Client{Timeout: c.cfg.Timeout}}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		cfg: c.cfg,
		log: c.log,
		http: &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
			Timeout:   c.cfg.Timeout,
		},
	}
}

// ImageURL resolves a backend image path: empty stays empty, absolute http
// URLs pass through, anything else is joined onto the media base.
func (c *Client) ImageURL(path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http"):
		return path
	default:
		return c.cfg.MediaBaseURL + "/" + strings.TrimLeft(path, "/")
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doJSON sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil). Non-2xx responses become *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	c.log.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	// the status alone decides failures; detail is whatever arrived
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, raw)
	}
	if readErr != nil {
		c.log.Warn("api response truncated", "method", req.Method, "path", req.URL.Path, "error", readErr)
		return fmt.Errorf("read %s %s: %w", req.Method, req.URL.Path, readErr)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func getJSON[T any](c *Client, ctx context.Context, path string, query url.Values) (*T, error) {
	var out T
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func sendJSON[T any](c *Client, ctx context.Context, method, path string, body any) (*T, error) {
	var out T
	if err := c.doJSON(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func idPath(collection string, id int64) string {
	return fmt.Sprintf("/%s/%d/", collection, id)
}
