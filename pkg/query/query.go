// Package query is the read side of memhooks: three stateless tools that
// proxy validated parameters to the worker and pass its answers through.
//
// The tools form a pipeline for the calling agent. search narrows to
// candidate ids, timeline shows what happened around one of them and
// get_observations fetches full detail for the final selection only.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

// Reader is the subset of the worker client used by the tools.
type Reader interface {
	EnsureWorker(ctx context.Context) bool
	Search(ctx context.Context, q url.Values) (json.RawMessage, error)
	Timeline(ctx context.Context, q url.Values) (json.RawMessage, error)
	BatchObservations(ctx context.Context, ids []int64) (json.RawMessage, error)
}

// Response is the outcome of a tool call: the worker's payload verbatim, or
// an error message. Its JSON form is the payload itself or {"error": "..."}.
type Response struct {
	Data  json.RawMessage
	Error string
}

// Failed reports whether the call failed.
func (r Response) Failed() bool {
	return r.Error != ""
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Failed() || len(r.Data) == 0 {
		msg := r.Error
		if msg == "" {
			msg = "empty response"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	return r.Data, nil
}

func failure(err error) Response {
	return Response{Error: err.Error()}
}

// ToolSpec describes one tool for registration with a host.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *Schema
}

// Tools returns the three tool descriptions in pipeline order.
func Tools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolSearch,
			Description: "Step 1: search memory. Returns a compact index of matching observations, summaries and sessions with their ids. Narrow down with filters before fetching details.",
			Schema:      schemaSearch,
		},
		{
			Name:        ToolTimeline,
			Description: "Step 2: show chronological context around a search result (anchor id) or around the best match for a query.",
			Schema:      schemaTimeline,
		},
		{
			Name:        ToolBatchFetch,
			Description: "Step 3: fetch full observation details for the selected ids only.",
			Schema:      schemaBatch,
		},
	}
}

// Facade runs the query tools.
type Facade struct {
	reader Reader
	logger *slog.Logger
}

// NewFacade creates a Facade. A nil logger discards logs.
func NewFacade(r Reader, l *slog.Logger) *Facade {
	if l == nil {
		l = logger.Nop()
	}
	return &Facade{reader: r, logger: l.With("component", "query")}
}

// Call runs the named tool with untyped arguments, as received from an
// agent. Unknown tools are reported as failures.
func (f *Facade) Call(ctx context.Context, tool string, args map[string]any) Response {
	switch tool {
	case ToolSearch:
		p, err := decodeArgs[SearchParams](schemaSearch, args)
		if err != nil {
			return failure(err)
		}
		return f.Search(ctx, p)

	case ToolTimeline:
		p, err := decodeArgs[TimelineParams](schemaTimeline, args)
		if err != nil {
			return failure(err)
		}
		return f.Timeline(ctx, p)

	case ToolBatchFetch:
		p, err := decodeArgs[BatchParams](schemaBatch, args)
		if err != nil {
			return failure(err)
		}
		return f.BatchFetch(ctx, p)

	default:
		return failure(fmt.Errorf("unknown tool: %q", tool))
	}
}

// Search runs the search tool.
func (f *Facade) Search(ctx context.Context, p SearchParams) Response {
	p = p.WithDefaults()
	if err := validateTyped(schemaSearch, p); err != nil {
		return failure(err)
	}
	return f.run(ctx, ToolSearch, func(ctx context.Context) (json.RawMessage, error) {
		return f.reader.Search(ctx, EncodeSearch(p))
	})
}

// Timeline runs the timeline tool.
func (f *Facade) Timeline(ctx context.Context, p TimelineParams) Response {
	p = p.WithDefaults()
	if err := validateTyped(schemaTimeline, p); err != nil {
		return failure(err)
	}
	return f.run(ctx, ToolTimeline, func(ctx context.Context) (json.RawMessage, error) {
		return f.reader.Timeline(ctx, EncodeTimeline(p))
	})
}

// BatchFetch runs the batch-fetch tool. Ordering and handling of unknown ids
// are up to the worker.
func (f *Facade) BatchFetch(ctx context.Context, p BatchParams) Response {
	if err := validateTyped(schemaBatch, p); err != nil {
		return failure(err)
	}
	return f.run(ctx, ToolBatchFetch, func(ctx context.Context) (json.RawMessage, error) {
		return f.reader.BatchObservations(ctx, p.IDs)
	})
}

func (f *Facade) run(ctx context.Context, tool string, call func(context.Context) (json.RawMessage, error)) Response {
	if !f.reader.EnsureWorker(ctx) {
		f.logger.Debug("tool skipped, worker unavailable", "tool", tool)
		return failure(worker.ErrUnavailable)
	}

	data, err := call(ctx)
	if err != nil {
		f.logger.Warn("tool call failed", "tool", tool, "error", err)

		var statusErr *worker.StatusError
		if errors.As(err, &statusErr) {
			return Response{Error: fmt.Sprintf("%s failed: HTTP %d", tool, statusErr.StatusCode)}
		}
		return failure(err)
	}
	return Response{Data: data}
}

// decodeArgs validates untyped arguments and converts them to T.
func decodeArgs[T any](s *Schema, args map[string]any) (T, error) {
	var out T
	if err := s.Validate(args); err != nil {
		return out, err
	}

	b, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("encoding parameters: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decoding parameters: %w", err)
	}
	return out, nil
}

// validateTyped checks typed parameters against the same schema agents are
// held to.
func validateTyped(s *Schema, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	var args map[string]any
	if err := json.Unmarshal(b, &args); err != nil {
		return fmt.Errorf("decoding parameters: %w", err)
	}
	return s.Validate(args)
}
