package main

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

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// Client talks to the memory game REST API for a single session.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID is the session the client plays.
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// do sends body as JSON and decodes the reply into result. Error statuses
// are returned with the API's error message.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// CreateSession starts a new session and plays it from now on.
func (c *Client) CreateSession(ctx context.Context, opts service.CreateOptions) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", opts, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume plays an existing session from now on.
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var info service.SessionInfo
	if err := c.do(ctx, "GET", c.sessionPath(""), nil, &info); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, "GET", c.sessionPath("/state"), nil, &snap); err != nil {
		return snap, fmt.Errorf("get state: %w", err)
	}
	return snap, nil
}

func (c *Client) Flip(ctx context.Context, index int) (*service.FlipResult, error) {
	var result service.FlipResult
	if err := c.do(ctx, "POST", c.sessionPath("/flip"), map[string]int{"index": index}, &result); err != nil {
		return nil, fmt.Errorf("flip %d: %w", index, err)
	}
	return &result, nil
}

// ResetResponse is the body of a reset reply.
type ResetResponse struct {
	Message string               `json:"message"`
	Session *service.SessionInfo `json:"session"`
}

func (c *Client) Reset(ctx context.Context) (engine.Snapshot, error) {
	var resp ResetResponse
	if err := c.do(ctx, "POST", c.sessionPath("/reset"), service.ResetOptions{}, &resp); err != nil {
		return engine.Snapshot{}, fmt.Errorf("reset: %w", err)
	}
	if resp.Session == nil {
		return engine.Snapshot{}, fmt.Errorf("reset: empty response")
	}
	return resp.Session.Snapshot, nil
}

// History returns every flip of the current deal, oldest first.
func (c *Client) History(ctx context.Context) ([]service.FlipRecord, error) {
	var flips []service.FlipRecord
	for page := 1; ; page++ {
		var resp service.HistoryResponse
		path := fmt.Sprintf("%s?order=asc&limit=100&page=%d", c.sessionPath("/history"), page)
		if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		flips = append(flips, resp.Flips...)
		if !resp.HasNext {
			return flips, nil
		}
	}
}
