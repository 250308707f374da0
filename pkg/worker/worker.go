// Package worker is the HTTP client for the memory worker service.
//
// The worker owns storage, search and summarization. This package only knows
// its JSON-over-HTTP contract: a readiness endpoint used as a liveness probe,
// three session lifecycle endpoints, the context injection endpoint and the
// three read endpoints behind the query tools.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/utils"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 37777

	// MaxProbeTimeout bounds the liveness probe no matter what is configured.
	MaxProbeTimeout = 5 * time.Second

	DefaultRequestTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response is kept in StatusError.
	maxErrorBody = 512
)

const (
	pathReadiness    = "/api/readiness"
	pathSessionInit  = "/api/sessions/init"
	pathObservations = "/api/sessions/observations"
	pathSummarize    = "/api/sessions/summarize"
	pathContext      = "/api/context/inject"
	pathSearch       = "/api/search"
	pathTimeline     = "/api/timeline"
	pathBatch        = "/api/observations/batch"
)

// Config configures a Client.
type Config struct {
	// BaseURL overrides Host and Port, e.g. "http://127.0.0.1:37777".
	BaseURL string

	Host string
	Port int

	// ProbeTimeout bounds the liveness probe; clamped to MaxProbeTimeout.
	ProbeTimeout time.Duration

	// RequestTimeout bounds every other call.
	RequestTimeout time.Duration

	// HTTPClient defaults to a client without its own timeout; deadlines come
	// from the per-call contexts.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the memory worker.
type Client struct {
	baseURL        *url.URL
	probeTimeout   time.Duration
	requestTimeout time.Duration
	http           *http.Client
	logger         *slog.Logger
}

// NewClient builds a Client, filling unset Config fields with defaults.
func NewClient(c Config) (*Client, error) {
	raw := c.BaseURL
	if raw == "" {
		host := c.Host
		if host == "" {
			host = DefaultHost
		}
		port := c.Port
		if port == 0 {
			port = DefaultPort
		}
		raw = "http://" + net.JoinHostPort(host, strconv.Itoa(port))
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid worker URL %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid worker URL %q: scheme and host are required", raw)
	}

	probe := c.ProbeTimeout
	if probe <= 0 || probe > MaxProbeTimeout {
		probe = MaxProbeTimeout
	}

	reqTimeout := c.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = DefaultRequestTimeout
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL:        base,
		probeTimeout:   probe,
		requestTimeout: reqTimeout,
		http:           httpClient,
		logger:         l.With("component", "worker"),
	}, nil
}

// BaseURL returns the worker base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// EnsureWorker probes the readiness endpoint once, bounded by the probe
// timeout. It never fails: any error, timeout or non-2xx status reports
// false.
func (c *Client) EnsureWorker(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(pathReadiness, nil), nil)
	if err != nil {
		c.logger.Debug("worker probe request failed", "error", err)
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("worker unreachable", "url", c.BaseURL(), "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !success(resp.StatusCode) {
		c.logger.Debug("worker not ready", "status", resp.StatusCode)
		return false
	}
	return true
}

// InitSessionRequest is the body of POST /api/sessions/init.
type InitSessionRequest struct {
	ContentSessionID string `json:"contentSessionId"`
	Project          string `json:"project"`
	Prompt           string `json:"prompt"`
}

// InitSessionResponse is the decoded init response. SessionDBID is nil when
// the worker does not return one.
type InitSessionResponse struct {
	SessionDBID *int64 `json:"sessionDbId,omitempty"`
}

// InitSession registers a content session with the worker.
func (c *Client) InitSession(ctx context.Context, in InitSessionRequest) (*InitSessionResponse, error) {
	const op = "sessions/init"

	body, err := c.do(ctx, op, http.MethodPost, c.endpoint(pathSessionInit, nil), in)
	if err != nil {
		return nil, err
	}

	out := &InitSessionResponse{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}

	// The 2xx status is the success signal; a body of any other shape only
	// loses the id.
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		c.logger.Debug("ignoring undecodable init response", "error", &DecodeError{Op: op, Err: err})
		return out, nil
	}
	if n, ok := fields["sessionDbId"].(float64); ok {
		id := int64(n)
		out.SessionDBID = &id
	}
	return out, nil
}

// ObservationRequest is the body of POST /api/sessions/observations.
type ObservationRequest struct {
	ContentSessionID string `json:"contentSessionId"`
	ToolName         string `json:"tool_name"`
	ToolInput        any    `json:"tool_input"`
	ToolResponse     any    `json:"tool_response"`
	Cwd              string `json:"cwd"`
}

// RecordObservation forwards a captured tool execution. The response body is
// ignored.
func (c *Client) RecordObservation(ctx context.Context, in ObservationRequest) error {
	_, err := c.do(ctx, "sessions/observations", http.MethodPost, c.endpoint(pathObservations, nil), in)
	return err
}

// SummarizeRequest is the body of POST /api/sessions/summarize.
type SummarizeRequest struct {
	ContentSessionID     string `json:"contentSessionId"`
	LastAssistantMessage string `json:"last_assistant_message"`
}

// Summarize triggers summarization of the session. The response body is
// ignored.
func (c *Client) Summarize(ctx context.Context, in SummarizeRequest) error {
	_, err := c.do(ctx, "sessions/summarize", http.MethodPost, c.endpoint(pathSummarize, nil), in)
	return err
}

// InjectContext returns the plain-text context blob for project.
func (c *Client) InjectContext(ctx context.Context, project string) (string, error) {
	q := url.Values{}
	q.Set("projects", project)

	body, err := c.do(ctx, "context/inject", http.MethodGet, c.endpoint(pathContext, q), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Search calls GET /api/search with the given query string.
func (c *Client) Search(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return c.readJSON(ctx, "search", http.MethodGet, c.endpoint(pathSearch, q), nil)
}

// Timeline calls GET /api/timeline with the given query string.
func (c *Client) Timeline(ctx context.Context, q url.Values) (json.RawMessage, error) {
	return c.readJSON(ctx, "timeline", http.MethodGet, c.endpoint(pathTimeline, q), nil)
}

// BatchRequest is the body of POST /api/observations/batch.
type BatchRequest struct {
	IDs []int64 `json:"ids"`
}

// BatchObservations fetches full observation records for ids.
func (c *Client) BatchObservations(ctx context.Context, ids []int64) (json.RawMessage, error) {
	return c.readJSON(ctx, "observations/batch", http.MethodPost, c.endpoint(pathBatch, nil), BatchRequest{IDs: ids})
}

func (c *Client) readJSON(ctx context.Context, op, method, target string, payload any) (json.RawMessage, error) {
	body, err := c.do(ctx, op, method, target, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &DecodeError{Op: op, Err: fmt.Errorf("response is not valid JSON (%d bytes)", len(body))}
	}
	return json.RawMessage(body), nil
}

// do issues a request bounded by the request timeout and returns the body of
// a 2xx response.
func (c *Client) do(ctx context.Context, op, method, target string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("worker call",
		"op", op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if !success(resp.StatusCode) {
		msg := utils.Truncate(strings.TrimSpace(string(body)), maxErrorBody)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: msg}
	}
	return body, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	u.RawQuery = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func success(code int) bool {
	return code >= 200 && code < 300
}
