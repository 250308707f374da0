// Package mcpcmder provides the mcp command, which serves the query tools
// over MCP on stdin/stdout.
package mcpcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/papercomputeco/memhooks/api/mcp"
	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/query"
)

const mcpLongDesc string = `Serve the memory query tools over MCP on stdin/stdout.

Register this command as an MCP server with any host that launches MCP
servers as subprocesses. Logs go to stderr; stdout carries the protocol.

Example host configuration:
  {"command": "memhooks", "args": ["mcp"]}`

const mcpShortDesc string = "Serve the query tools over MCP (stdio)"

func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd)
		},
	}

	config.AddWorkerFlags(cmd)

	return cmd
}

func runMCP(cmd *cobra.Command) error {
	env, err := workerenv.Load(cmd, workerenv.Options{Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer env.Close()

	server, err := mcpserver.NewServer(mcpserver.Config{
		Facade: query.NewFacade(env.Worker, env.Logger),
		Logger: env.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.RunStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
