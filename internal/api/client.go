// Package api is the HTTP client for the bookmarks/history/sessions/preferences API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/types"
)

// DefaultBaseURL is where `brisk serve` listens by default.
const DefaultBaseURL = "http://127.0.0.1:8001/api"

// Client talks to the API. Every failure wraps one of types.ErrValidation,
// types.ErrNotFound or types.ErrUnavailable.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for baseURL (for example "http://host:8001/api").
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

type bookmarkResponse struct {
	Success  bool           `json:"success"`
	Bookmark types.Bookmark `json:"bookmark"`
}

type sessionResponse struct {
	Success bool          `json:"success"`
	Session types.Session `json:"session"`
}

type bookmarkCreate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Favicon string `json:"favicon,omitempty"`
}

type historyCreate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type sessionCreate struct {
	Name string             `json:"name"`
	Tabs []types.SessionTab `json:"tabs"`
}

type preferencesUpdate struct {
	Theme    string         `json:"theme,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Login performs the username handshake and returns the canonical name.
func (c *Client) Login(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("login: username is empty: %w", types.ErrValidation)
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Username: username}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("login rejected: %w", types.ErrUnavailable)
	}
	return resp.Username, nil
}

// ListBookmarks returns all bookmarks of user.
func (c *Client) ListBookmarks(ctx context.Context, user string) ([]types.Bookmark, error) {
	var out []types.Bookmark
	err := c.do(ctx, http.MethodGet, "/bookmarks", userQuery(user), nil, &out)
	return out, err
}

// AddBookmark stores b and returns it with its server id.
func (c *Client) AddBookmark(ctx context.Context, user string, b types.Bookmark) (types.Bookmark, error) {
	var resp bookmarkResponse
	body := bookmarkCreate{URL: b.URL, Title: b.Title, Favicon: b.Favicon}
	if err := c.do(ctx, http.MethodPost, "/bookmarks", userQuery(user), body, &resp); err != nil {
		return types.Bookmark{}, err
	}
	return resp.Bookmark, nil
}

// DeleteBookmark removes bookmark id.
func (c *Client) DeleteBookmark(ctx context.Context, user, id string) error {
	return c.do(ctx, http.MethodDelete, "/bookmarks/"+url.PathEscape(id), userQuery(user), nil, nil)
}

// ListHistory returns up to limit entries, newest first. limit <= 0 uses
// the server default.
func (c *Client) ListHistory(ctx context.Context, user string, limit int) ([]types.HistoryEntry, error) {
	q := userQuery(user)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []types.HistoryEntry
	err := c.do(ctx, http.MethodGet, "/history", q, nil, &out)
	return out, err
}

// AddHistory appends one visit.
func (c *Client) AddHistory(ctx context.Context, user string, e types.HistoryEntry) error {
	body := historyCreate{URL: e.URL, Title: e.Title}
	return c.do(ctx, http.MethodPost, "/history", userQuery(user), body, nil)
}

// ClearHistory deletes every history entry of user.
func (c *Client) ClearHistory(ctx context.Context, user string) error {
	return c.do(ctx, http.MethodDelete, "/history", userQuery(user), nil, nil)
}

// GetPreferences returns the preferences of user.
func (c *Client) GetPreferences(ctx context.Context, user string) (types.Preferences, error) {
	var out types.Preferences
	err := c.do(ctx, http.MethodGet, "/preferences", userQuery(user), nil, &out)
	return out, err
}

// UpdatePreferences writes the non-empty fields of p.
func (c *Client) UpdatePreferences(ctx context.Context, user string, p types.Preferences) error {
	body := preferencesUpdate{Theme: p.Theme, Settings: p.Settings}
	return c.do(ctx, http.MethodPut, "/preferences", userQuery(user), body, nil)
}

// ListSessions returns the saved sessions of user.
func (c *Client) ListSessions(ctx context.Context, user string) ([]types.Session, error) {
	var out []types.Session
	err := c.do(ctx, http.MethodGet, "/sessions", userQuery(user), nil, &out)
	return out, err
}

// CreateSession saves s and returns it with its server id.
func (c *Client) CreateSession(ctx context.Context, user string, s types.Session) (types.Session, error) {
	if strings.TrimSpace(s.Name) == "" {
		return types.Session{}, fmt.Errorf("session name is empty: %w", types.ErrValidation)
	}
	var resp sessionResponse
	body := sessionCreate{Name: s.Name, Tabs: s.Tabs}
	if body.Tabs == nil {
		body.Tabs = []types.SessionTab{}
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", userQuery(user), body, &resp); err != nil {
		return types.Session{}, err
	}
	return resp.Session, nil
}

// DeleteSession removes session id.
func (c *Client) DeleteSession(ctx context.Context, user, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), userQuery(user), nil, nil)
}

func userQuery(user string) url.Values {
	return url.Values{"user": []string{user}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w: %v", types.ErrUnavailable, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		applog.Error("api.request", err, "method", method, "path", path)
		return fmt.Errorf("%s %s: %w: %v", method, path, types.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		applog.Info("api.status", "method", method, "path", path, "status", resp.StatusCode)
		return statusError(method, path, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w: %v", path, types.ErrUnavailable, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	var er errorResponse
	json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er)
	detail := er.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	kind := types.ErrUnavailable
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = types.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = types.ErrValidation
	}
	return fmt.Errorf("%s %s: HTTP %d %s: %w", method, path, resp.StatusCode, detail, kind)
}
