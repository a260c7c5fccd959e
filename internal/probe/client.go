// Package probe talks to a running pawmatch server and checks the ranked lists
// it serves.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/pawmatch/internal/domain/match"
	"github.com/okian/pawmatch/internal/domain/model"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Ack answers POST /events.
type Ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Client calls the pawmatch HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout uses 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Matches fetches the user's ranked list. A zero limit fetches all of it.
func (c *Client) Matches(ctx context.Context, userID string, limit int) (model.RankedList, error) {
	var out model.RankedList
	err := c.do(ctx, http.MethodGet, c.matchesPath(userID, "", limit), nil, &out)
	return out, err
}

// Refresh forces a reload of the user's ranked list.
func (c *Client) Refresh(ctx context.Context, userID string, limit int) (model.RankedList, error) {
	var out model.RankedList
	err := c.do(ctx, http.MethodPost, c.matchesPath(userID, "/refresh", limit), nil, &out)
	return out, err
}

// Score fetches one pet's score.
func (c *Client) Score(ctx context.Context, userID, petID string) (match.ScoreStatus, error) {
	var out match.ScoreStatus
	err := c.do(ctx, http.MethodGet, c.matchesPath(userID, "/pets/"+url.PathEscape(petID), 0), nil, &out)
	return out, err
}

// Notify posts a change event. An empty EventID is filled with a new UUID.
func (c *Client) Notify(ctx context.Context, e model.ChangeEvent) (Ack, error) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	var out Ack
	err := c.do(ctx, http.MethodPost, "/events", e, &out)
	return out, err
}

// Stats fetches the server's statistics snapshot.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

func (c *Client) matchesPath(userID, suffix string, limit int) string {
	p := "/matches/" + url.PathEscape(userID) + suffix
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = "http_error"
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
