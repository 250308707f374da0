package opencode_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/hook/opencode"
)

var _ = Describe("OpenCode adapter", func() {
	var adapter *opencode.Adapter

	BeforeEach(func() {
		adapter = opencode.New(hook.Options{SessionID: "local-1"})
	})

	Describe("NormalizeInput", func() {
		It("extracts the prompt from chat.message text parts", func() {
			in := adapter.NormalizeInput([]byte(`{
				"sessionID": "ses_abc",
				"directory": "/home/dev/project",
				"message": {"id": "msg_1"},
				"parts": [
					{"type": "text", "text": "fix the bug"},
					{"type": "file", "url": "file:///a.go"},
					{"type": "text", "text": "in main.go"}
				]
			}`))

			Expect(in.Platform).To(Equal(hook.PlatformOpenCode))
			Expect(in.SessionID).To(Equal("ses_abc"))
			Expect(in.Cwd).To(Equal("/home/dev/project"))
			Expect(in.Prompt).NotTo(BeNil())
			Expect(*in.Prompt).To(Equal("fix the bug\nin main.go"))
		})

		It("reads parts nested under message", func() {
			in := adapter.NormalizeInput([]byte(`{"message": {"parts": [{"type": "text", "text": "hi"}]}}`))
			Expect(hook.Value(in.Prompt)).To(Equal("hi"))
		})

		It("maps tool.execute.after fields", func() {
			in := adapter.NormalizeInput([]byte(`{
				"sessionID": "ses_abc",
				"tool": "bash",
				"args": {"command": "ls"},
				"output": "a.go\nb.go"
			}`))

			Expect(hook.Value(in.ToolName)).To(Equal("bash"))
			Expect(in.ToolInput).To(Equal(map[string]any{"command": "ls"}))
			Expect(in.ToolResponse).To(Equal("a.go\nb.go"))
			Expect(in.Prompt).To(BeNil())
		})

		It("reads compaction messages with info.role", func() {
			in := adapter.NormalizeInput([]byte(`{
				"messages": [
					{"info": {"role": "user"}, "parts": [{"type": "text", "text": "q"}]},
					{"info": {"role": "assistant"}, "parts": [{"type": "text", "text": "A"}]},
					{"role": "assistant", "content": "B"}
				]
			}`))

			Expect(in.Messages).To(Equal([]hook.Message{
				{Role: "user", Text: "q"},
				{Role: "assistant", Text: "A"},
				{Role: "assistant", Text: "B"},
			}))
		})

		It("reads the system prompt entries", func() {
			in := adapter.NormalizeInput([]byte(`{"system": ["you are helpful", 3]}`))
			Expect(in.System).To(Equal([]string{"you are helpful"}))
		})

		It("falls back to the plugin session id", func() {
			in := adapter.NormalizeInput([]byte(`{}`))
			Expect(in.SessionID).To(Equal("local-1"))
		})
	})

	Describe("FormatOutput", func() {
		It("returns the bare context string for context injection", func() {
			Expect(adapter.FormatOutput(hook.WithContext("", "ctx"))).To(Equal("ctx"))
		})

		It("returns a success object otherwise", func() {
			Expect(adapter.FormatOutput(hook.Continue())).To(Equal(map[string]any{"continue": true}))
		})
	})
})
