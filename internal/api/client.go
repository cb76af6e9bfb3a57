package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrDaemonUnavailable reports that no daemon answered on the configured address.
var ErrDaemonUnavailable = errors.New("vtrpon daemon not reachable")

// Error is a non-2xx API reply.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient targets the daemon listening on bind.
func NewClient(bind, token string) *Client {
	return &Client{
		baseURL: BaseURL(bind),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL turns a listen address into a URL a local client can dial.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// List fetches the playlist.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	var out PlaylistResponse
	if err := c.do(ctx, http.MethodGet, "/api/playlist", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Add queues a presentation for conversion. An empty slideSeconds uses the
// daemon's default.
func (c *Client) Add(ctx context.Context, path, slideSeconds string) (Entry, error) {
	var out EntryResponse
	req := AddRequest{Path: path, SlideSeconds: slideSeconds}
	if err := c.do(ctx, http.MethodPost, "/api/playlist", req, &out); err != nil {
		return Entry{}, err
	}
	return out.Entry, nil
}

// Retry restarts a failed entry.
func (c *Client) Retry(ctx context.Context, id string) (Entry, error) {
	var out EntryResponse
	if err := c.do(ctx, http.MethodPost, "/api/playlist/"+url.PathEscape(id)+"/retry", nil, &out); err != nil {
		return Entry{}, err
	}
	return out.Entry, nil
}

// Remove deletes an entry.
func (c *Client) Remove(ctx context.Context, id string) (bool, error) {
	var out RemoveResponse
	err := c.do(ctx, http.MethodDelete, "/api/playlist/"+url.PathEscape(id), nil, &out)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return out.Removed, err
}

// Clear removes every entry that is not converting.
func (c *Client) Clear(ctx context.Context) (int, error) {
	var out ClearResponse
	err := c.do(ctx, http.MethodDelete, "/api/playlist", nil, &out)
	return out.Removed, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return fmt.Errorf("%w at %s", ErrDaemonUnavailable, c.baseURL)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
