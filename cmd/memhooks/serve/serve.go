// Package servecmder provides the serve command, which runs the hook bridge
// with the MCP endpoint mounted.
package servecmder

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/api"
	mcpserver "github.com/papercomputeco/memhooks/api/mcp"
	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/dotdir"
	"github.com/papercomputeco/memhooks/pkg/query"
)

type serveCommander struct {
	noMCP bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the memhooks hook bridge.

The bridge keeps one plugin instance per host session so one-shot hook
commands share session state. It also serves the query tools over HTTP and
mounts an MCP endpoint at /mcp.

While running, the bridge address is recorded in .memhooks/bridge.json so
memhooks hook forwards events to it.

Examples:
  memhooks serve
  memhooks serve --listen 127.0.0.1:4000
  memhooks serve --eventstream-provider kafka --eventstream-brokers localhost:9092`

const serveShortDesc string = "Run the hook bridge"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddWorkerFlags(cmd)
	config.AddEventStreamFlags(cmd)
	var listen, project string
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagProject, &project)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	flags := append([]string{config.FlagListen, config.FlagProject}, config.EventStreamFlags...)
	env, err := workerenv.Load(cmd, workerenv.Options{
		Flags:     flags,
		Publisher: true,
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer env.Close()
	c.logger = env.Logger

	apiConfig := api.Config{
		ListenAddr: env.Settings.BridgeListen,
		Worker:     env.Worker,
		Publisher:  env.Publisher,
		Project:    env.Settings.Project,
		Logger:     c.logger,
	}

	if !c.noMCP {
		mcpServer, err := mcpserver.NewServer(mcpserver.Config{
			Facade: query.NewFacade(env.Worker, c.logger),
			Logger: c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiConfig.MCPHandler = mcpServer.Handler()
	}

	server, err := api.NewServer(apiConfig)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	ddm := dotdir.NewManager()
	state := &dotdir.BridgeState{
		Listen:    ClientAddr(env.Settings.BridgeListen),
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
	}
	if err := ddm.SaveBridgeState(state, env.ConfigDir); err != nil {
		return fmt.Errorf("recording bridge state: %w", err)
	}
	defer func() {
		if err := ddm.ClearBridgeState(env.ConfigDir); err != nil {
			c.logger.Warn("clearing bridge state", "error", err)
		}
	}()

	c.logger.Info("starting hook bridge",
		"listen", env.Settings.BridgeListen,
		"worker", env.Worker.BaseURL(),
		"mcp", !c.noMCP,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("bridge error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// ClientAddr turns a listen address into one clients can dial: an empty or
// wildcard host becomes the loopback address.
func ClientAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
