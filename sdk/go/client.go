package tasklocksdk

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
)

// Client is a minimal Tasklock HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// CompletedTask is a finished task and when it was finished.
type CompletedTask struct {
	CompletedAt time.Time `json:"completedAt"`
	Task        string    `json:"task"`
}

// State mirrors the persisted task state.
type State struct {
	CurrentTask string          `json:"currentTask"`
	Active      []string        `json:"active"`
	Backlog     []string        `json:"backlog"`
	Completed   []CompletedTask `json:"completed"`
}

// Result is returned by every mutating call.
type Result struct {
	OpID    string `json:"op_id"`
	Changed bool   `json:"changed"`
	Task    string `json:"task"`
	State   State  `json:"state"`
}

// Event represents a log entry.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	OpID    string `json:"op_id"`
	Task    string `json:"task"`
	Payload string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// State fetches the full task state.
func (c *Client) State(ctx context.Context) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodGet, "state", nil, &resp)
	return resp, err
}

// Roll picks a new current task.
func (c *Client) Roll(ctx context.Context) (Result, error) {
	return c.action(ctx, "roll")
}

// Backlog moves the current task to the backlog.
func (c *Client) Backlog(ctx context.Context) (Result, error) {
	return c.action(ctx, "backlog")
}

// Complete marks the current task completed.
func (c *Client) Complete(ctx context.Context) (Result, error) {
	return c.action(ctx, "complete")
}

// ListText returns the editable text of a list (active, backlog or completed).
func (c *Client) ListText(ctx context.Context, list string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("lists/%s/text", url.PathEscape(list)), nil, &resp)
	return resp.Text, err
}

// ReplaceList replaces a whole list from text.
func (c *Client) ReplaceList(ctx context.Context, list, text string) (Result, error) {
	var resp Result
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("lists/%s/text", url.PathEscape(list)), map[string]any{"text": text}, &resp)
	return resp, err
}

// AddTasks appends tasks to the active list or backlog.
func (c *Client) AddTasks(ctx context.Context, list string, tasks ...string) (Result, error) {
	var resp Result
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("lists/%s/tasks", url.PathEscape(list)), map[string]any{"tasks": tasks}, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) action(ctx context.Context, name string) (Result, error) {
	var resp Result
	err := c.do(ctx, http.MethodPost, name, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
