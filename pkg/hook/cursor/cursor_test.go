package cursor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/hook/cursor"
)

var _ = Describe("Cursor adapter", func() {
	var adapter *cursor.Adapter

	BeforeEach(func() {
		adapter = cursor.New(hook.Options{SessionID: "local-1"})
	})

	It("uses the conversation id and first workspace root", func() {
		in := adapter.NormalizeInput([]byte(`{
			"conversation_id": "conv-9",
			"workspace_roots": ["/ws/one", "/ws/two"],
			"prompt": "refactor"
		}`))

		Expect(in.Platform).To(Equal(hook.PlatformCursor))
		Expect(in.SessionID).To(Equal("conv-9"))
		Expect(in.Cwd).To(Equal("/ws/one"))
		Expect(hook.Value(in.Prompt)).To(Equal("refactor"))
	})

	It("decodes result_json tool responses", func() {
		in := adapter.NormalizeInput([]byte(`{
			"tool_name": "edit_file",
			"tool_input": {"path": "x"},
			"result_json": "{\"ok\": true}"
		}`))

		Expect(hook.Value(in.ToolName)).To(Equal("edit_file"))
		Expect(in.ToolResponse).To(Equal(map[string]any{"ok": true}))
	})

	It("keeps result_json verbatim when it is not JSON", func() {
		in := adapter.NormalizeInput([]byte(`{"result_json": "plain"}`))
		Expect(in.ToolResponse).To(Equal("plain"))
	})

	It("formats context with snake_case keys", func() {
		Expect(adapter.FormatOutput(hook.WithContext("", "ctx"))).To(Equal(map[string]any{
			"continue":           true,
			"additional_context": "ctx",
		}))
		Expect(adapter.FormatOutput(hook.Continue())).To(Equal(map[string]any{"continue": true}))
	})
})
