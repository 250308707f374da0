package plugin_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/plugin"
	"github.com/papercomputeco/memhooks/pkg/query"
	testutils "github.com/papercomputeco/memhooks/pkg/utils/test"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

const (
	chatPayload = `{"sessionID":"ses_1","directory":"/home/dev/memhooks","parts":[{"type":"text","text":"add tests"}]}`
	toolPayload = `{"sessionID":"ses_1","directory":"/home/dev/memhooks","tool":"bash","args":{"command":"ls"},"output":"a.go"}`
)

var _ = Describe("Plugin", func() {
	var (
		fw  *testutils.FakeWorker
		pub *testutils.RecordingPublisher
		p   *plugin.Plugin
		ctx context.Context
	)

	newPlugin := func(platform hook.Platform) *plugin.Plugin {
		client, err := worker.NewClient(worker.Config{BaseURL: fw.URL()})
		Expect(err).NotTo(HaveOccurred())

		pl, err := plugin.New(plugin.Config{
			Platform:  platform,
			Worker:    client,
			Publisher: pub,
			SessionID: "local-1",
		})
		Expect(err).NotTo(HaveOccurred())
		return pl
	}

	BeforeEach(func() {
		fw = testutils.NewFakeWorker()
		DeferCleanup(fw.Close)
		pub = testutils.NewRecordingPublisher()
		ctx = context.Background()
		p = newPlugin(hook.PlatformOpenCode)
	})

	Describe("New", func() {
		It("rejects an unknown platform", func() {
			client, _ := worker.NewClient(worker.Config{})
			_, err := plugin.New(plugin.Config{Platform: "emacs", Worker: client})
			Expect(err).To(MatchError(ContainSubstring("unsupported platform")))
		})

		It("generates a session id when none is pinned", func() {
			client, _ := worker.NewClient(worker.Config{})
			pl, err := plugin.New(plugin.Config{Platform: hook.PlatformCursor, Worker: client})
			Expect(err).NotTo(HaveOccurred())
			Expect(pl.Session().SessionID).To(MatchRegexp(`^\d+-[0-9a-z]{9}$`))
		})
	})

	Describe("ChatMessage", func() {
		It("initializes the session once across many prompts", func() {
			fw.Reply("/api/sessions/init", testutils.Reply{Body: `{"sessionDbId": 5}`})

			p.ChatMessage(ctx, []byte(chatPayload))
			p.ChatMessage(ctx, []byte(chatPayload))

			calls := fw.CallsTo("/api/sessions/init")
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Body).To(HaveKeyWithValue("contentSessionId", "local-1"))
			Expect(calls[0].Body).To(HaveKeyWithValue("project", "memhooks"))
			Expect(calls[0].Body).To(HaveKeyWithValue("prompt", "add tests"))

			st := p.Session()
			Expect(st.Initialized).To(BeTrue())
			Expect(*st.RemoteSessionID).To(Equal(int64(5)))
		})

		It("never retries after a failed attempt", func() {
			fw.SetReady(false)
			p.ChatMessage(ctx, []byte(chatPayload))

			fw.SetReady(true)
			p.ChatMessage(ctx, []byte(chatPayload))

			Expect(fw.CallsTo("/api/sessions/init")).To(BeEmpty())
			Expect(p.Session().Initialized).To(BeFalse())
		})

		It("always tells the host to continue", func() {
			fw.Reply("/api/sessions/init", testutils.Reply{Status: http.StatusInternalServerError})
			Expect(p.ChatMessage(ctx, []byte(`not json`))).To(Equal(map[string]any{"continue": true}))
		})
	})

	Describe("ToolExecuteAfter", func() {
		It("is dropped before the session is initialized", func() {
			p.ToolExecuteAfter(ctx, []byte(toolPayload))
			Expect(fw.Calls()).To(BeEmpty())
		})

		It("records observations once initialized", func() {
			p.ChatMessage(ctx, []byte(chatPayload))
			p.ToolExecuteAfter(ctx, []byte(toolPayload))

			calls := fw.CallsTo("/api/sessions/observations")
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Body).To(HaveKeyWithValue("tool_name", "bash"))
			Expect(pub.Events()).To(HaveLen(2))
		})
	})

	Describe("SessionCompacting", func() {
		It("summarizes only the last assistant message", func() {
			p.ChatMessage(ctx, []byte(chatPayload))
			p.SessionCompacting(ctx, []byte(`{"messages":[
				{"role":"assistant","content":"A"},
				{"role":"user","content":"more"},
				{"role":"assistant","content":"B"}
			]}`))

			calls := fw.CallsTo("/api/sessions/summarize")
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Body).To(HaveKeyWithValue("last_assistant_message", "B"))
		})
	})

	Describe("SystemTransform", func() {
		It("appends context to the last entry", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})
			system := []string{"first", "base"}

			out := p.SystemTransform(ctx, []byte(`{"directory":"/x/proj"}`), system)
			Expect(out).To(Equal([]string{"first", "base\n\nMEM"}))
			Expect(system).To(Equal([]string{"first", "base"}))
			Expect(fw.CallsTo("/api/context/inject")[0].Query["projects"]).To(Equal([]string{"proj"}))
		})

		It("adds an entry when the system prompt is empty", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})
			Expect(p.SystemTransform(ctx, nil, []string{})).To(Equal([]string{"MEM"}))
		})

		It("leaves the system prompt alone for blank context", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "  \n"})
			Expect(p.SystemTransform(ctx, nil, []string{"base"})).To(Equal([]string{"base"}))
		})

		It("leaves the system prompt alone when the worker is down", func() {
			fw.SetReady(false)
			Expect(p.SystemTransform(ctx, nil, []string{"base"})).To(Equal([]string{"base"}))
			Expect(fw.Calls()).To(BeEmpty())
		})

		It("does not require an initialized session", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})
			Expect(p.Session().Initialized).To(BeFalse())
			Expect(p.SystemTransform(ctx, nil, []string{"base"})).To(Equal([]string{"base\n\nMEM"}))
		})
	})

	Describe("Handle", func() {
		It("wraps injected context for Claude Code", func() {
			fw.Reply("/api/context/inject", testutils.Reply{Body: "MEM"})
			cc := newPlugin(hook.PlatformClaudeCode)

			out := cc.Handle(ctx, hook.EventContextInject, []byte(`{"session_id":"s","cwd":"/repo"}`))
			Expect(out).To(Equal(map[string]any{
				"hookSpecificOutput": map[string]any{
					"hookEventName":     "SessionStart",
					"additionalContext": "MEM",
				},
			}))
		})

		It("answers with the minimal success object for unknown kinds", func() {
			cc := newPlugin(hook.PlatformClaudeCode)
			Expect(cc.Handle(ctx, "bogus", nil)).To(Equal(map[string]any{
				"continue":       true,
				"suppressOutput": true,
			}))
			Expect(fw.Calls()).To(BeEmpty())
		})
	})

	Describe("tools", func() {
		It("lists the three query tools", func() {
			names := []string{}
			for _, t := range p.Tools() {
				names = append(names, t.Name)
			}
			Expect(names).To(Equal([]string{query.ToolSearch, query.ToolTimeline, query.ToolBatchFetch}))
		})

		It("does not touch the session", func() {
			before := p.Session()
			p.Search(ctx, map[string]any{"query": "x"})
			p.Timeline(ctx, map[string]any{"anchor": 1})
			p.BatchFetch(ctx, map[string]any{"ids": []any{1}})
			Expect(p.Session()).To(Equal(before))
			Expect(fw.CallsTo("/api/sessions/init")).To(BeEmpty())
		})

		It("reports worker outages as failures", func() {
			fw.SetReady(false)
			resp := p.Search(ctx, map[string]any{"query": "x"})
			Expect(resp.Failed()).To(BeTrue())
		})
	})
})

const faultyPlatform hook.Platform = "faulty"

// faultyAdapter fails while reading every payload.
type faultyAdapter struct{}

func (faultyAdapter) Platform() hook.Platform { return faultyPlatform }

func (faultyAdapter) NormalizeInput([]byte) hook.NormalizedInput {
	panic("unreadable payload")
}

func (faultyAdapter) FormatOutput(hook.Result) any {
	return map[string]any{"continue": true}
}

func init() {
	hook.Register(faultyPlatform, func(hook.Options) hook.Adapter { return faultyAdapter{} })
}

var _ = Describe("Plugin with a failing adapter", func() {
	var p *plugin.Plugin

	BeforeEach(func() {
		fw := testutils.NewFakeWorker()
		DeferCleanup(fw.Close)

		client, err := worker.NewClient(worker.Config{BaseURL: fw.URL()})
		Expect(err).NotTo(HaveOccurred())

		p, err = plugin.New(plugin.Config{Platform: faultyPlatform, Worker: client})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns the system prompt unchanged", func() {
		var out []string
		Expect(func() {
			out = p.SystemTransform(context.Background(), []byte(`{}`), []string{"base"})
		}).NotTo(Panic())
		Expect(out).To(Equal([]string{"base"}))
	})

	It("still answers hooks with continue", func() {
		var out any
		Expect(func() {
			out = p.Handle(context.Background(), hook.EventSessionInit, []byte(`{}`))
		}).NotTo(Panic())
		Expect(out).To(Equal(map[string]any{"continue": true}))
	})
})
