// Package memhookscmder
package memhookscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memhooks/cmd/memhooks/config"
	contextcmder "github.com/papercomputeco/memhooks/cmd/memhooks/context"
	hookcmder "github.com/papercomputeco/memhooks/cmd/memhooks/hook"
	initcmder "github.com/papercomputeco/memhooks/cmd/memhooks/init"
	mcpcmder "github.com/papercomputeco/memhooks/cmd/memhooks/mcp"
	querycmder "github.com/papercomputeco/memhooks/cmd/memhooks/query"
	servecmder "github.com/papercomputeco/memhooks/cmd/memhooks/serve"
	statuscmder "github.com/papercomputeco/memhooks/cmd/memhooks/status"
	versioncmder "github.com/papercomputeco/memhooks/cmd/version"
)

const memhooksLongDesc string = `memhooks connects coding agents to a persistent memory worker.

Host platforms call memhooks on their lifecycle events; memhooks records
the session with the worker and injects remembered context back into the
agent's system prompt.

Wire a host to memhooks using:
  memhooks hook <platform> <event>   Handle one lifecycle event (stdin/stdout)
  memhooks serve                     Run the hook bridge and MCP endpoint
  memhooks mcp                       Serve the query tools over MCP (stdio)

Query memory using:
  memhooks search, memhooks timeline, memhooks fetch, memhooks context`

const memhooksShortDesc string = "memhooks - Agent Memory Hooks"

func NewMemhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "memhooks",
		Short:        memhooksShortDesc,
		Long:         memhooksLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .memhooks/ config directory")

	// Add subcommands
	cmd.AddCommand(hookcmder.NewHookCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(querycmder.NewSearchCmd())
	cmd.AddCommand(querycmder.NewTimelineCmd())
	cmd.AddCommand(querycmder.NewFetchCmd())
	cmd.AddCommand(contextcmder.NewContextCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
