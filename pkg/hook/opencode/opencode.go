// Package opencode adapts OpenCode plugin hook payloads to the canonical
// hook schema.
//
// The OpenCode shim forwards the (input, output) pair of each plugin hook as
// a single JSON object. Keys follow OpenCode's own naming: sessionID,
// directory, message/parts for chat.message, tool/args/output for
// tool.execute.after, system for the system transform and messages for
// session compaction.
package opencode

import (
	"strings"

	"github.com/papercomputeco/memhooks/pkg/hook"
)

// Adapter is the OpenCode platform adapter.
type Adapter struct {
	opts hook.Options
}

// New creates an OpenCode adapter.
func New(opts hook.Options) *Adapter {
	return &Adapter{opts: opts}
}

func (a *Adapter) Platform() hook.Platform {
	return hook.PlatformOpenCode
}

func (a *Adapter) NormalizeInput(raw []byte) hook.NormalizedInput {
	f := hook.ParseFields(raw)

	in := hook.NormalizedInput{
		SessionID: f.String("sessionID", "sessionId"),
		Cwd:       a.opts.FallbackCwd(f.String("directory", "cwd", "worktree")),
		Platform:  hook.PlatformOpenCode,
	}
	if in.SessionID == "" {
		in.SessionID = a.opts.FallbackSessionID()
	}

	in.Prompt = hook.StringPtr(promptText(f))
	in.ToolName = hook.StringPtr(f.String("tool"))
	in.ToolInput = f.Any("args")
	in.ToolResponse = f.Any("output", "result")
	in.TranscriptPath = hook.StringPtr(f.String("transcriptPath"))
	in.Messages = messages(f)
	in.System = f.Strings("system")

	return in
}

// FormatOutput returns the bare context string for context injection and a
// minimal success object otherwise.
func (a *Adapter) FormatOutput(r hook.Result) any {
	if ctx, ok := r.AdditionalContext(); ok {
		return ctx
	}
	return map[string]any{"continue": r.Continue}
}

// promptText extracts the user prompt from a chat.message payload: an
// explicit prompt field first, then the text parts of the message.
func promptText(f hook.Fields) string {
	if p := f.String("prompt"); p != "" {
		return p
	}

	parts := f.Objects("parts")
	if len(parts) == 0 {
		parts = f.Object("message").Objects("parts")
	}
	return joinTextParts(parts)
}

// messages reads OpenCode's {info: {role}, parts: [...]} message list. Flat
// {role, content} entries are accepted as well.
func messages(f hook.Fields) []hook.Message {
	entries := f.Objects("messages")
	if len(entries) == 0 {
		return nil
	}

	out := make([]hook.Message, 0, len(entries))
	for _, e := range entries {
		role := e.Object("info").String("role")
		if role == "" {
			role = e.String("role")
		}

		text := joinTextParts(e.Objects("parts"))
		if text == "" {
			text = e.String("content", "text")
		}

		out = append(out, hook.Message{Role: role, Text: text})
	}
	return out
}

func joinTextParts(parts []hook.Fields) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := p.String("type"); t != "" && t != "text" {
			continue
		}
		if s := p.String("text"); s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n")
}
