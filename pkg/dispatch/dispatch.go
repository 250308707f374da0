// Package dispatch maps each canonical hook event to exactly one worker
// endpoint.
//
// Handlers return typed errors; they never swallow them. The plugin layer
// decides what reaches the host (nothing) and what reaches the log.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/session"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

var (
	// ErrWorkerUnavailable means the liveness probe failed and the event was
	// skipped.
	ErrWorkerUnavailable = worker.ErrUnavailable

	// ErrNotInitialized means the session has not completed initialization.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrInitAttempted means the single initialization attempt was already
	// made by an earlier event.
	ErrInitAttempted = errors.New("session initialization already attempted")
)

// Skipped reports whether err only means the event was intentionally not
// dispatched.
func Skipped(err error) bool {
	return errors.Is(err, ErrWorkerUnavailable) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrInitAttempted)
}

// Worker is the subset of the worker client used by the dispatcher.
type Worker interface {
	EnsureWorker(ctx context.Context) bool
	InitSession(ctx context.Context, in worker.InitSessionRequest) (*worker.InitSessionResponse, error)
	RecordObservation(ctx context.Context, in worker.ObservationRequest) error
	Summarize(ctx context.Context, in worker.SummarizeRequest) error
	InjectContext(ctx context.Context, project string) (string, error)
}

// Config configures a Dispatcher.
type Config struct {
	Worker    Worker
	Session   *session.Sequencer
	Publisher eventstream.Publisher

	// Project overrides the project name derived from the event cwd.
	Project string

	Logger *slog.Logger
}

// Dispatcher sends normalized events to the worker.
type Dispatcher struct {
	worker    Worker
	session   *session.Sequencer
	publisher eventstream.Publisher
	project   string
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(c Config) (*Dispatcher, error) {
	if c.Worker == nil {
		return nil, errors.New("worker is required")
	}
	if c.Session == nil {
		return nil, errors.New("session is required")
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Dispatcher{
		worker:    c.Worker,
		session:   c.Session,
		publisher: c.Publisher,
		project:   c.Project,
		logger:    l.With("component", "dispatch"),
	}, nil
}

// Session returns the sequencer the dispatcher gates on.
func (d *Dispatcher) Session() *session.Sequencer {
	return d.session
}

// InitSession handles the first chat/prompt event of a session. The single
// attempt is claimed before the liveness probe, so a second prompt never
// produces a second sessions/init call whatever the first outcome was.
func (d *Dispatcher) InitSession(ctx context.Context, in hook.NormalizedInput) error {
	if !d.session.BeginInit() {
		return ErrInitAttempted
	}
	if !d.worker.EnsureWorker(ctx) {
		return ErrWorkerUnavailable
	}

	resp, err := d.worker.InitSession(ctx, worker.InitSessionRequest{
		ContentSessionID: d.session.SessionID(),
		Project:          d.projectName(in),
		Prompt:           hook.Value(in.Prompt),
	})
	var decodeErr *worker.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		// The worker accepted the session; only its id is unreadable.
		d.logger.Debug("init response not decoded", "error", err)
		resp = nil
	case err != nil:
		return fmt.Errorf("initializing session: %w", err)
	}

	var remoteID *int64
	if resp != nil {
		remoteID = resp.SessionDBID
	}
	d.session.CompleteInit(remoteID)
	d.publish(ctx, hook.EventSessionInit, in)
	return nil
}

// ToolExecuted forwards a captured tool execution as an observation.
func (d *Dispatcher) ToolExecuted(ctx context.Context, in hook.NormalizedInput) error {
	if err := d.gate(ctx, true); err != nil {
		return err
	}

	err := d.worker.RecordObservation(ctx, worker.ObservationRequest{
		ContentSessionID: d.session.SessionID(),
		ToolName:         hook.Value(in.ToolName),
		ToolInput:        in.ToolInput,
		ToolResponse:     in.ToolResponse,
		Cwd:              in.Cwd,
	})
	if err != nil {
		return fmt.Errorf("recording observation: %w", err)
	}

	d.publish(ctx, hook.EventToolExecuted, in)
	return nil
}

// InjectContext fetches memory context for the event's project and appends
// it to existing. When the worker returns nothing but whitespace, existing is
// returned unchanged.
func (d *Dispatcher) InjectContext(ctx context.Context, in hook.NormalizedInput, existing string) (string, error) {
	if err := d.gate(ctx, false); err != nil {
		return existing, err
	}

	add, err := d.worker.InjectContext(ctx, d.projectName(in))
	if err != nil {
		return existing, fmt.Errorf("fetching context: %w", err)
	}

	d.publish(ctx, hook.EventContextInject, in)
	return AppendContext(existing, add), nil
}

// SessionCompacting forwards only the last assistant message of the
// conversation to the summarizer. A conversation without one still triggers
// summarization, with an empty message.
func (d *Dispatcher) SessionCompacting(ctx context.Context, in hook.NormalizedInput) error {
	if err := d.gate(ctx, true); err != nil {
		return err
	}

	last, _ := LastAssistantMessage(in.Messages)

	err := d.worker.Summarize(ctx, worker.SummarizeRequest{
		ContentSessionID:     d.session.SessionID(),
		LastAssistantMessage: last,
	})
	if err != nil {
		return fmt.Errorf("requesting summary: %w", err)
	}

	d.publish(ctx, hook.EventSessionCompacting, in)
	return nil
}

// gate applies the liveness check and, for session-scoped events, the
// initialized check. The cheap local check runs first so uninitialized
// sessions never touch the network.
func (d *Dispatcher) gate(ctx context.Context, needsSession bool) error {
	if needsSession && !d.session.Initialized() {
		return ErrNotInitialized
	}
	if !d.worker.EnsureWorker(ctx) {
		return ErrWorkerUnavailable
	}
	return nil
}

func (d *Dispatcher) projectName(in hook.NormalizedInput) string {
	if d.project != "" {
		return d.project
	}
	return ProjectName(in.Cwd)
}

func (d *Dispatcher) publish(ctx context.Context, kind hook.EventKind, in hook.NormalizedInput) {
	if d.publisher == nil {
		return
	}

	ev := eventstream.NewHookEvent(kind, in, d.session.Snapshot())
	if err := d.publisher.PublishHook(ctx, ev); err != nil {
		d.logger.Warn("event tap publish failed", "kind", kind, "error", err)
	}
}

// AppendContext appends add to existing separated by one blank line. Empty
// or whitespace-only add leaves existing untouched.
func AppendContext(existing, add string) string {
	if strings.TrimSpace(add) == "" {
		return existing
	}
	if existing == "" {
		return add
	}
	return existing + "\n\n" + add
}

// LastAssistantMessage returns the text of the final assistant-authored
// message, scanning in conversation order.
func LastAssistantMessage(messages []hook.Message) (string, bool) {
	var (
		last  string
		found bool
	)
	for _, m := range messages {
		if m.Role == "assistant" {
			last = m.Text
			found = true
		}
	}
	return last, found
}

// ProjectName derives the worker project name from a working directory.
func ProjectName(cwd string) string {
	if cwd == "" {
		return "unknown"
	}
	base := filepath.Base(filepath.Clean(cwd))
	if base == "." || base == string(filepath.Separator) {
		return "unknown"
	}
	return base
}
