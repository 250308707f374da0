// Package cursor adapts Cursor agent hook payloads to the canonical hook
// schema.
package cursor

import (
	"encoding/json"

	"github.com/papercomputeco/memhooks/pkg/hook"
)

// Adapter is the Cursor platform adapter.
type Adapter struct {
	opts hook.Options
}

func New(opts hook.Options) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) Platform() hook.Platform {
	return hook.PlatformCursor
}

func (a *Adapter) NormalizeInput(raw []byte) hook.NormalizedInput {
	f := hook.ParseFields(raw)

	cwd := f.String("cwd")
	if cwd == "" {
		if roots := f.Strings("workspace_roots"); len(roots) > 0 {
			cwd = roots[0]
		}
	}

	in := hook.NormalizedInput{
		SessionID:      f.String("conversation_id", "session_id"),
		Cwd:            a.opts.FallbackCwd(cwd),
		Platform:       hook.PlatformCursor,
		Prompt:         hook.StringPtr(f.String("prompt")),
		ToolName:       hook.StringPtr(f.String("tool_name")),
		ToolInput:      f.Any("tool_input"),
		ToolResponse:   toolResponse(f),
		TranscriptPath: hook.StringPtr(f.String("transcript_path")),
	}
	if in.SessionID == "" {
		in.SessionID = a.opts.FallbackSessionID()
	}

	for _, m := range f.Objects("messages") {
		in.Messages = append(in.Messages, hook.Message{
			Role: m.String("role"),
			Text: m.String("text", "content"),
		})
	}

	return in
}

// FormatOutput uses Cursor's snake_case response keys.
func (a *Adapter) FormatOutput(r hook.Result) any {
	out := map[string]any{"continue": r.Continue}
	if ctx, ok := r.AdditionalContext(); ok {
		out["additional_context"] = ctx
	}
	return out
}

// toolResponse decodes result_json when Cursor sends the tool result as an
// embedded JSON string; the raw string is kept when it does not parse.
func toolResponse(f hook.Fields) any {
	if s := f.String("result_json"); s != "" {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
		return s
	}
	return f.Any("output", "tool_output")
}
