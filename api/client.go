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

	"github.com/papercomputeco/memhooks/pkg/hook"
)

const defaultClientTimeout = 10 * time.Second

// Client forwards hook events to a running bridge. One-shot hook processes
// use it so every event of a host session reaches the same plugin instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a bridge client for baseURL, e.g. "http://127.0.0.1:37778".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ping reports whether the bridge answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/ping", nil)
	return err
}

// Hook sends one lifecycle event to the instance and returns the
// host-shaped output as JSON.
func (c *Client) Hook(ctx context.Context, instance string, platform hook.Platform, kind hook.EventKind, raw []byte) (json.RawMessage, error) {
	path := fmt.Sprintf("/v1/instances/%s/hooks/%s?platform=%s",
		url.PathEscape(instance),
		url.PathEscape(string(kind)),
		url.QueryEscape(string(platform)),
	)
	return c.do(ctx, http.MethodPost, path, raw)
}

// System runs the system prompt transform on the instance.
func (c *Client) System(ctx context.Context, instance string, platform hook.Platform, raw []byte) ([]string, error) {
	path := fmt.Sprintf("/v1/instances/%s/system?platform=%s",
		url.PathEscape(instance),
		url.QueryEscape(string(platform)),
	)
	body, err := c.do(ctx, http.MethodPost, path, raw)
	if err != nil {
		return nil, err
	}

	var resp SystemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding system response: %w", err)
	}
	return resp.System, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating bridge request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting bridge: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bridge response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		if json.Unmarshal(out, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("bridge returned %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("bridge returned %d", resp.StatusCode)
	}
	return out, nil
}
