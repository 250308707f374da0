// Package testutils provides shared fakes for memhooks tests.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// Call is a request received by a FakeWorker.
type Call struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
	Raw    []byte
}

// Reply is a canned response for one path.
type Reply struct {
	Status int
	Body   string
	Delay  time.Duration
}

// FakeWorker is an httptest-backed memory worker that records every call.
type FakeWorker struct {
	Server *httptest.Server

	mu      sync.Mutex
	calls   []Call
	replies map[string]Reply
	ready   bool
}

// NewFakeWorker starts a ready worker that answers 200 "{}" to everything.
func NewFakeWorker() *FakeWorker {
	fw := &FakeWorker{
		replies: map[string]Reply{},
		ready:   true,
	}
	fw.Server = httptest.NewServer(http.HandlerFunc(fw.serve))
	return fw
}

// URL is the worker base URL.
func (fw *FakeWorker) URL() string {
	return fw.Server.URL
}

// HostPort splits the worker address, for commands configured with
// --worker-host and --worker-port.
func (fw *FakeWorker) HostPort() (host, port string) {
	u, err := url.Parse(fw.Server.URL)
	if err != nil {
		return "", ""
	}
	return u.Hostname(), u.Port()
}

// Close stops the server.
func (fw *FakeWorker) Close() {
	fw.Server.Close()
}

// SetReady toggles the readiness endpoint between 200 and 503.
func (fw *FakeWorker) SetReady(ready bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.ready = ready
}

// Reply sets the canned response for path.
func (fw *FakeWorker) Reply(path string, r Reply) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.replies[path] = r
}

// Calls returns every recorded call except readiness probes.
func (fw *FakeWorker) Calls() []Call {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	out := make([]Call, 0, len(fw.calls))
	for _, c := range fw.calls {
		if c.Path != "/api/readiness" {
			out = append(out, c)
		}
	}
	return out
}

// CallsTo returns the recorded calls for path.
func (fw *FakeWorker) CallsTo(path string) []Call {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	var out []Call
	for _, c := range fw.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (fw *FakeWorker) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	call := Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Raw:    raw,
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}

	fw.mu.Lock()
	fw.calls = append(fw.calls, call)
	ready := fw.ready
	reply, ok := fw.replies[r.URL.Path]
	fw.mu.Unlock()

	if r.URL.Path == "/api/readiness" && !ok {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ready"}`)
		return
	}

	if !ok {
		reply = Reply{Status: http.StatusOK, Body: "{}"}
	}
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}
