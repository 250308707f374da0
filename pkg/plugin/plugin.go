// Package plugin is the host-facing surface of memhooks. A Plugin owns one
// session and turns raw host payloads into worker calls.
//
// Every entry point is total. Failures are logged and the host always gets
// a well-formed "continue" answer; a memory outage must never break a
// coding session.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/papercomputeco/memhooks/pkg/dispatch"
	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/hook"
	_ "github.com/papercomputeco/memhooks/pkg/hook/platforms"
	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/query"
	"github.com/papercomputeco/memhooks/pkg/session"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

// Worker is everything a Plugin needs from the memory worker.
// *worker.Client satisfies it.
type Worker interface {
	EnsureWorker(ctx context.Context) bool
	InitSession(ctx context.Context, in worker.InitSessionRequest) (*worker.InitSessionResponse, error)
	RecordObservation(ctx context.Context, in worker.ObservationRequest) error
	Summarize(ctx context.Context, in worker.SummarizeRequest) error
	InjectContext(ctx context.Context, project string) (string, error)
	Search(ctx context.Context, q url.Values) (json.RawMessage, error)
	Timeline(ctx context.Context, q url.Values) (json.RawMessage, error)
	BatchObservations(ctx context.Context, ids []int64) (json.RawMessage, error)
}

// Config configures a Plugin.
type Config struct {
	Platform hook.Platform
	Worker   Worker

	// Publisher mirrors dispatched events. Optional.
	Publisher eventstream.Publisher

	// Project overrides the project name derived from the host cwd.
	Project string

	// SessionID pins the local session id. Generated when empty.
	SessionID string

	Logger *slog.Logger
}

// Plugin is one plugin instance: one adapter, one session.
type Plugin struct {
	adapter    hook.Adapter
	session    *session.Sequencer
	dispatcher *dispatch.Dispatcher
	facade     *query.Facade
	logger     *slog.Logger
}

// New creates a Plugin for the configured platform.
func New(c Config) (*Plugin, error) {
	if c.Worker == nil {
		return nil, errors.New("worker is required")
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	var opts []session.Option
	if c.SessionID != "" {
		opts = append(opts, session.WithSessionID(c.SessionID))
	}
	seq := session.New(opts...)

	adapter, err := hook.New(c.Platform, hook.Options{SessionID: seq.SessionID()})
	if err != nil {
		return nil, err
	}

	l = l.With("platform", string(c.Platform), "session", seq.SessionID())

	d, err := dispatch.New(dispatch.Config{
		Worker:    c.Worker,
		Session:   seq,
		Publisher: c.Publisher,
		Project:   c.Project,
		Logger:    l,
	})
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	return &Plugin{
		adapter:    adapter,
		session:    seq,
		dispatcher: d,
		facade:     query.NewFacade(c.Worker, l),
		logger:     l.With("component", "plugin"),
	}, nil
}

// Platform returns the host platform this instance serves.
func (p *Plugin) Platform() hook.Platform {
	return p.adapter.Platform()
}

// Session returns a snapshot of the instance's session.
func (p *Plugin) Session() session.State {
	return p.session.Snapshot()
}

// ChatMessage handles a user prompt. The first one initializes the session.
func (p *Plugin) ChatMessage(ctx context.Context, raw []byte) any {
	return p.Handle(ctx, hook.EventSessionInit, raw)
}

// ToolExecuteAfter records a completed tool execution.
func (p *Plugin) ToolExecuteAfter(ctx context.Context, raw []byte) any {
	return p.Handle(ctx, hook.EventToolExecuted, raw)
}

// SessionCompacting asks the worker to summarize before the host compacts.
func (p *Plugin) SessionCompacting(ctx context.Context, raw []byte) any {
	return p.Handle(ctx, hook.EventSessionCompacting, raw)
}

// SystemTransform returns system with memory context appended to its last
// entry, or added as the only entry when system is empty. When no context is
// available the input is returned as is. A nil system falls back to the
// system entries carried in raw. The input slice is never modified.
func (p *Plugin) SystemTransform(ctx context.Context, raw []byte, system []string) (out []string) {
	out = system
	defer p.recover(hook.EventContextInject, func() { out = system })

	in := p.adapter.NormalizeInput(raw)
	if system == nil {
		system = in.System
	}
	out = system

	var last string
	if len(system) > 0 {
		last = system[len(system)-1]
	}

	merged, err := p.dispatcher.InjectContext(ctx, in, last)
	p.report(hook.EventContextInject, err)
	if err != nil || merged == last {
		return system
	}

	if len(system) == 0 {
		return []string{merged}
	}
	out = make([]string, len(system))
	copy(out, system)
	out[len(out)-1] = merged
	return out
}

// Handle runs the handler for kind and returns the host-shaped result.
func (p *Plugin) Handle(ctx context.Context, kind hook.EventKind, raw []byte) (out any) {
	defer p.recover(kind, func() {
		if out == nil {
			out = map[string]any{"continue": true}
		}
	})
	out = p.adapter.FormatOutput(hook.Continue())

	in := p.adapter.NormalizeInput(raw)

	var err error
	switch kind {
	case hook.EventSessionInit:
		err = p.dispatcher.InitSession(ctx, in)

	case hook.EventToolExecuted:
		err = p.dispatcher.ToolExecuted(ctx, in)

	case hook.EventSessionCompacting:
		err = p.dispatcher.SessionCompacting(ctx, in)

	case hook.EventContextInject:
		var text string
		text, err = p.dispatcher.InjectContext(ctx, in, "")
		if err == nil && text != "" {
			out = p.adapter.FormatOutput(hook.WithContext("", text))
		}

	default:
		err = fmt.Errorf("unknown event kind: %q", kind)
	}

	p.report(kind, err)
	return out
}

// Tools describes the query tools this instance can run.
func (p *Plugin) Tools() []query.ToolSpec {
	return query.Tools()
}

// CallTool runs the named query tool.
func (p *Plugin) CallTool(ctx context.Context, tool string, args map[string]any) query.Response {
	return p.facade.Call(ctx, tool, args)
}

// Search runs the search tool.
func (p *Plugin) Search(ctx context.Context, args map[string]any) query.Response {
	return p.facade.Call(ctx, query.ToolSearch, args)
}

// Timeline runs the timeline tool.
func (p *Plugin) Timeline(ctx context.Context, args map[string]any) query.Response {
	return p.facade.Call(ctx, query.ToolTimeline, args)
}

// BatchFetch runs the get_observations tool.
func (p *Plugin) BatchFetch(ctx context.Context, args map[string]any) query.Response {
	return p.facade.Call(ctx, query.ToolBatchFetch, args)
}

// Query returns the typed query facade, for callers that build parameters
// themselves.
func (p *Plugin) Query() *query.Facade {
	return p.facade
}

func (p *Plugin) report(kind hook.EventKind, err error) {
	switch {
	case err == nil:
		p.logger.Debug("hook dispatched", "kind", kind)
	case dispatch.Skipped(err):
		p.logger.Debug("hook skipped", "kind", kind, "reason", err)
	default:
		p.logger.Warn("hook failed", "kind", kind, "error", err)
	}
}

// recover keeps a panic in a handler from reaching the host. onPanic resets
// the named result when the default would otherwise be lost.
func (p *Plugin) recover(kind hook.EventKind, onPanic func()) {
	if r := recover(); r != nil {
		p.logger.Error("hook panicked", "kind", kind, "panic", r)
		if onPanic != nil {
			onPanic()
		}
	}
}
