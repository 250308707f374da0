package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/query"
	testutils "github.com/papercomputeco/memhooks/pkg/utils/test"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

func textOf(res *mcp.CallToolResult) string {
	ExpectWithOffset(1, res.Content).To(HaveLen(1))
	tc, ok := res.Content[0].(*mcp.TextContent)
	ExpectWithOffset(1, ok).To(BeTrue())
	return tc.Text
}

var _ = Describe("MCP Server", func() {
	var (
		fw     *testutils.FakeWorker
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		fw = testutils.NewFakeWorker()
		DeferCleanup(fw.Close)

		client, err := worker.NewClient(worker.Config{BaseURL: fw.URL()})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			Facade: query.NewFacade(client, nil),
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("NewServer", func() {
		It("requires a facade", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("query facade is required")))
		})

		It("requires a logger", func() {
			client, _ := worker.NewClient(worker.Config{})
			_, err := NewServer(Config{Facade: query.NewFacade(client, nil)})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("over a client session", func() {
		var session *mcp.ClientSession

		BeforeEach(func() {
			serverT, clientT := mcp.NewInMemoryTransports()
			ss, err := server.mcpServer.Connect(ctx, serverT, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = ss.Close() })

			client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
			session, err = client.Connect(ctx, clientT, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = session.Close() })
		})

		schemaOf := func(name string) map[string]any {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			for _, t := range res.Tools {
				if t.Name == name {
					b, err := json.Marshal(t.InputSchema)
					Expect(err).NotTo(HaveOccurred())
					var schema map[string]any
					Expect(json.Unmarshal(b, &schema)).To(Succeed())
					return schema
				}
			}
			Fail("tool not listed: " + name)
			return nil
		}

		It("lists the three tools in pipeline order", func() {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("search", "timeline", "get_observations"))
		})

		It("publishes enums, defaults and bounds", func() {
			props := schemaOf("search")["properties"].(map[string]any)
			Expect(props["type"]).To(HaveKeyWithValue("enum", ConsistOf("observation", "summary", "session")))
			Expect(props["limit"]).To(HaveKeyWithValue("default", BeNumerically("==", 20)))
			Expect(props["limit"]).To(HaveKeyWithValue("maximum", BeNumerically("==", 100)))

			timeline := schemaOf("timeline")
			Expect(timeline).To(HaveKey("anyOf"))
			Expect(timeline["properties"].(map[string]any)["depth_before"]).To(HaveKeyWithValue("default", BeNumerically("==", 3)))

			Expect(schemaOf("get_observations")).To(HaveKeyWithValue("required", ConsistOf("ids")))
		})

		It("passes the worker payload through as text", func() {
			fw.Reply("/api/search", testutils.Reply{Body: `{"results":[{"id":1,"title":"fixed auth"}]}`})

			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": "auth"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(textOf(res)).To(MatchJSON(`{"results":[{"id":1,"title":"fixed auth"}]}`))
			Expect(fw.CallsTo("/api/search")[0].Query["limit"]).To(Equal([]string{"20"}))
		})

		It("returns invalid parameters as a tool error", func() {
			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"type": "commit"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring(`"error"`))
			Expect(fw.CallsTo("/api/search")).To(BeEmpty())
		})

		It("sends a timeline anchor with default depths", func() {
			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "timeline",
				Arguments: map[string]any{"anchor": 12},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			q := fw.CallsTo("/api/timeline")[0].Query
			Expect(q["anchor"]).To(Equal([]string{"12"}))
			Expect(q["depth_before"]).To(Equal([]string{"3"}))
		})

		It("reports an unavailable worker as a tool error", func() {
			fw.SetReady(false)

			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "get_observations",
				Arguments: map[string]any{"ids": []int{1, 2}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(MatchJSON(`{"error":"memory worker unavailable"}`))
			Expect(fw.CallsTo("/api/observations/batch")).To(BeEmpty())
		})
	})
})
