// Package mcp exposes the memhooks query tools over the Model Context
// Protocol, for hosts that discover tools through an MCP server.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memhooks/pkg/query"
	"github.com/papercomputeco/memhooks/pkg/utils"
)

type Config struct {
	// Facade runs the query tools against the worker.
	Facade *query.Facade

	// Logger is the configured slog logger.
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates an MCP server with the search, timeline and
// get_observations tools.
func NewServer(c Config) (*Server, error) {
	if c.Facade == nil {
		return nil, errors.New("query facade is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	c.Logger = c.Logger.With("component", "mcp")

	s := &Server{config: c}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "memhooks",
			Version: utils.Version,
		},
		&mcp.ServerOptions{
			Instructions: instructions,
		},
	)

	// The published schemas are the ones the facade validates against, so
	// agents see every type, enum, default and bound.
	for _, t := range query.Tools() {
		mcpServer.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema.JSON(),
		}, s.handleTool(t.Name))
	}

	s.mcpServer = mcpServer

	// Stateless: every tool call is independent of the MCP session.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the streamable HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// RunStdio serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.config.Logger.Info("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

const instructions = `Memory of past coding sessions. Use the tools as a pipeline:
search to find candidate ids, timeline to see what happened around one of them,
then get_observations for full details of only the ids you need.`
