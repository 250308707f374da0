// Package hook defines the canonical, platform-independent hook schema.
//
// Every host platform (OpenCode, Claude Code, Cursor, ...) emits lifecycle
// events in its own shape. An [Adapter] converts host payloads into a
// [NormalizedInput] and converts a [Result] back into whatever the host
// expects. The rest of memhooks only ever sees the canonical types.
package hook

import (
	"os"
)

// Platform identifies the host that produced an event.
type Platform string

const (
	PlatformOpenCode   Platform = "opencode"
	PlatformClaudeCode Platform = "claude-code"
	PlatformCursor     Platform = "cursor"
)

// EventKind is a canonical lifecycle event.
type EventKind string

const (
	// EventSessionInit is the first chat/prompt event of a session.
	EventSessionInit EventKind = "session-init"

	// EventToolExecuted is emitted after the host ran a tool.
	EventToolExecuted EventKind = "tool-executed"

	// EventContextInject asks for memory context to add to the system prompt.
	EventContextInject EventKind = "context-inject"

	// EventSessionCompacting is emitted before the host compacts a session.
	EventSessionCompacting EventKind = "session-compacting"
)

// EventKinds returns every canonical event kind in dispatch-table order.
func EventKinds() []EventKind {
	return []EventKind{
		EventSessionInit,
		EventToolExecuted,
		EventContextInject,
		EventSessionCompacting,
	}
}

// ParseEventKind resolves a canonical event kind from its name.
func ParseEventKind(name string) (EventKind, bool) {
	for _, k := range EventKinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Message is a single conversation turn carried by compaction events.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NormalizedInput is the canonical event envelope produced by every Adapter.
//
// SessionID, Cwd and Platform are always set. The remaining fields are nil
// when the host did not provide them; they are never defaulted.
type NormalizedInput struct {
	SessionID string   `json:"sessionId"`
	Cwd       string   `json:"cwd"`
	Platform  Platform `json:"platform"`

	Prompt         *string `json:"prompt,omitempty"`
	ToolName       *string `json:"toolName,omitempty"`
	ToolInput      any     `json:"toolInput,omitempty"`
	ToolResponse   any     `json:"toolResponse,omitempty"`
	TranscriptPath *string `json:"transcriptPath,omitempty"`

	// Messages is the conversation as seen by the host, oldest first.
	Messages []Message `json:"messages,omitempty"`

	// System holds the host's current system prompt entries.
	System []string `json:"system,omitempty"`
}

// HookSpecificOutput carries data a handler wants injected into the host.
type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName,omitempty"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Result is the canonical handler response consumed by Adapter.FormatOutput.
type Result struct {
	Continue           bool                `json:"continue"`
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// Continue returns the default result: do not block the host.
func Continue() Result {
	return Result{Continue: true}
}

// WithContext returns a non-blocking result that injects additional context.
func WithContext(eventName, context string) Result {
	return Result{
		Continue: true,
		HookSpecificOutput: &HookSpecificOutput{
			HookEventName:     eventName,
			AdditionalContext: context,
		},
	}
}

// AdditionalContext returns the injected context of r, if any.
func (r Result) AdditionalContext() (string, bool) {
	if r.HookSpecificOutput == nil || r.HookSpecificOutput.AdditionalContext == "" {
		return "", false
	}
	return r.HookSpecificOutput.AdditionalContext, true
}

// Adapter converts host-native payloads into and out of the canonical schema.
// Implementations hold no state and perform no I/O.
type Adapter interface {
	// Platform is the tag stamped on every NormalizedInput.
	Platform() Platform

	// NormalizeInput never fails. Malformed payloads normalize to an
	// envelope with only the required fields populated.
	NormalizeInput(raw []byte) NormalizedInput

	// FormatOutput shapes r the way the host expects it.
	FormatOutput(r Result) any
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FallbackCwd returns cwd when set, otherwise the process working directory.
func FallbackCwd(cwd string) string {
	if cwd != "" {
		return cwd
	}
	wd, err := os.Getwd()
	if err != nil || wd == "" {
		return "."
	}
	return wd
}
