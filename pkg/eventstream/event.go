package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/session"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeHookDispatched is emitted after a hook event reached the worker.
	EventTypeHookDispatched = "memhooks.hook.dispatched"
)

// HookDispatchedEvent is a transport-neutral payload describing one
// successfully dispatched hook event.
type HookDispatchedEvent struct {
	SchemaVersion int                  `json:"schema_version"`
	EventType     string               `json:"event_type"`
	EventID       string               `json:"event_id"`
	EmittedAt     time.Time            `json:"emitted_at"`
	Kind          hook.EventKind       `json:"kind"`
	Platform      hook.Platform        `json:"platform"`
	Session       session.State        `json:"session"`
	Input         hook.NormalizedInput `json:"input"`
}

// NewHookEvent builds a v1 event for kind with a fresh id.
func NewHookEvent(kind hook.EventKind, in hook.NormalizedInput, st session.State) *HookDispatchedEvent {
	return &HookDispatchedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeHookDispatched,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Kind:          kind,
		Platform:      in.Platform,
		Session:       st,
		Input:         in,
	}
}
