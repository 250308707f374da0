package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/memhooks/cmd/memhooks/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers the bridge flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{"listen", "project", "worker-host", "worker-port", "eventstream-provider", "no-mcp"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal("127.0.0.1:37778"))
	})

	It("rejects arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = DescribeTable("ClientAddr",
	func(listen, want string) {
		Expect(servecmder.ClientAddr(listen)).To(Equal(want))
	},
	Entry("loopback", "127.0.0.1:37778", "127.0.0.1:37778"),
	Entry("empty host", ":37778", "127.0.0.1:37778"),
	Entry("ipv4 wildcard", "0.0.0.0:9000", "127.0.0.1:9000"),
	Entry("ipv6 wildcard", "[::]:9000", "127.0.0.1:9000"),
	Entry("named host", "memhooks.local:9000", "memhooks.local:9000"),
	Entry("unparseable", "nonsense", "nonsense"),
)
