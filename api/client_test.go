package api_test

import (
	"context"
	"net/http/httptest"

	"github.com/gofiber/adaptor/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/api"
	"github.com/papercomputeco/memhooks/pkg/hook"
	testutils "github.com/papercomputeco/memhooks/pkg/utils/test"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

var _ = Describe("Client", func() {
	var (
		fw     *testutils.FakeWorker
		client *api.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fw = testutils.NewFakeWorker()
		DeferCleanup(fw.Close)

		wc, err := worker.NewClient(worker.Config{BaseURL: fw.URL()})
		Expect(err).NotTo(HaveOccurred())

		server, err := api.NewServer(api.Config{Worker: wc})
		Expect(err).NotTo(HaveOccurred())

		ts := httptest.NewServer(adaptor.FiberApp(server.App()))
		DeferCleanup(ts.Close)

		client = api.NewClient(ts.URL+"/", 0)
	})

	It("pings the bridge", func() {
		Expect(client.Ping(ctx)).To(Succeed())
	})

	It("forwards hook events to one instance", func() {
		fw.Reply("/api/sessions/init", testutils.Reply{Body: `{"sessionDbId": 9}`})
		payload := []byte(`{"session_id":"host-1","cwd":"/src/app","prompt":"hello"}`)

		out, err := client.Hook(ctx, "host-1", hook.PlatformClaudeCode, hook.EventSessionInit, payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchJSON(`{"continue":true,"suppressOutput":true}`))

		_, err = client.Hook(ctx, "host-1", hook.PlatformClaudeCode, hook.EventSessionInit, payload)
		Expect(err).NotTo(HaveOccurred())

		Expect(fw.CallsTo("/api/sessions/init")).To(HaveLen(1))
	})

	It("returns bridge errors", func() {
		_, err := client.Hook(ctx, "host-1", hook.Platform("emacs"), hook.EventSessionInit, []byte(`{}`))
		Expect(err).To(MatchError(ContainSubstring("bridge returned 400")))
		Expect(err).To(MatchError(ContainSubstring("unsupported platform")))
	})

	It("runs the system transform", func() {
		fw.Reply("/api/context/inject", testutils.Reply{Body: "remember this"})

		system, err := client.System(ctx, "oc-1", hook.PlatformOpenCode, []byte(`{"directory":"/src/app","system":["base"]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(system).To(HaveLen(1))
		Expect(system[0]).To(HavePrefix("base"))
		Expect(system[0]).To(ContainSubstring("remember this"))
	})
})
