// Package claudecode adapts Claude Code command-hook payloads (stdin JSON
// with snake_case keys) to the canonical hook schema.
package claudecode

import (
	"github.com/papercomputeco/memhooks/pkg/hook"
)

// Adapter is the Claude Code platform adapter.
type Adapter struct {
	opts hook.Options
}

func New(opts hook.Options) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) Platform() hook.Platform {
	return hook.PlatformClaudeCode
}

func (a *Adapter) NormalizeInput(raw []byte) hook.NormalizedInput {
	f := hook.ParseFields(raw)

	in := hook.NormalizedInput{
		SessionID:      f.String("session_id"),
		Cwd:            a.opts.FallbackCwd(f.String("cwd")),
		Platform:       hook.PlatformClaudeCode,
		Prompt:         hook.StringPtr(f.String("prompt")),
		ToolName:       hook.StringPtr(f.String("tool_name")),
		ToolInput:      f.Any("tool_input"),
		ToolResponse:   f.Any("tool_response", "tool_output"),
		TranscriptPath: hook.StringPtr(f.String("transcript_path")),
	}
	if in.SessionID == "" {
		in.SessionID = a.opts.FallbackSessionID()
	}

	for _, m := range f.Objects("messages") {
		in.Messages = append(in.Messages, hook.Message{
			Role: m.String("role"),
			Text: m.String("content", "text"),
		})
	}
	if last := f.String("last_assistant_message"); last != "" && len(in.Messages) == 0 {
		in.Messages = []hook.Message{{Role: "assistant", Text: last}}
	}

	return in
}

// FormatOutput wraps injected context in Claude Code's hookSpecificOutput
// envelope. Other results only tell Claude Code to continue quietly.
func (a *Adapter) FormatOutput(r hook.Result) any {
	if ctx, ok := r.AdditionalContext(); ok {
		eventName := r.HookSpecificOutput.HookEventName
		if eventName == "" {
			eventName = "SessionStart"
		}
		return map[string]any{
			"hookSpecificOutput": map[string]any{
				"hookEventName":     eventName,
				"additionalContext": ctx,
			},
		}
	}
	return map[string]any{
		"continue":       r.Continue,
		"suppressOutput": true,
	}
}
