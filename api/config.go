// Package api provides the hook bridge: a local HTTP server that hosts plugin
// instances for host platforms that cannot run memhooks in-process.
package api

import (
	"log/slog"
	"net/http"

	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/plugin"
)

// Config is the bridge server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:37778")
	ListenAddr string

	// Worker is shared by every plugin instance.
	Worker plugin.Worker

	// Publisher mirrors dispatched events. Optional.
	Publisher eventstream.Publisher

	// Project overrides the project name derived from each event's cwd.
	Project string

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler

	Logger *slog.Logger
}
