package contextcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	contextcmder "github.com/papercomputeco/memhooks/cmd/memhooks/context"
	testutils "github.com/papercomputeco/memhooks/pkg/utils/test"
)

var _ = Describe("Context command", func() {
	var (
		fw     *testutils.FakeWorker
		stdout *bytes.Buffer
	)

	run := func(args ...string) error {
		host, port := fw.HostPort()
		cmd := contextcmder.NewContextCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--worker-host", host, "--worker-port", port))
		return cmd.Execute()
	}

	BeforeEach(func() {
		fw = testutils.NewFakeWorker()
		DeferCleanup(fw.Close)
		stdout = &bytes.Buffer{}
	})

	It("prints the raw context for the named project", func() {
		fw.Reply("/api/context/inject", testutils.Reply{Body: "# Recent work\n- fixed checkout"})

		Expect(run("shop", "--raw")).To(Succeed())
		Expect(stdout.String()).To(Equal("# Recent work\n- fixed checkout\n"))

		calls := fw.CallsTo("/api/context/inject")
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].Query).To(HaveKeyWithValue("projects", []string{"shop"}))
	})

	It("falls back to the project flag", func() {
		Expect(run("--project", "billing", "--raw")).To(Succeed())
		Expect(fw.CallsTo("/api/context/inject")[0].Query).To(HaveKeyWithValue("projects", []string{"billing"}))
	})

	It("renders markdown by default", func() {
		fw.Reply("/api/context/inject", testutils.Reply{Body: "# Recent work"})
		Expect(run("shop")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("Recent work"))
	})

	It("fails when the worker is down", func() {
		fw.SetReady(false)
		Expect(run("shop")).To(MatchError(ContainSubstring("unavailable")))
		Expect(fw.CallsTo("/api/context/inject")).To(BeEmpty())
	})
})
