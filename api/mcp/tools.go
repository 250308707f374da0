package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memhooks/pkg/query"
)

// handleTool returns the handler for one query tool. Arguments are validated
// by the facade, so invalid calls come back as tool errors the agent can
// read rather than protocol errors.
func (s *Server) handleTool(tool string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return s.result(tool, query.Response{Error: "arguments must be a JSON object"}), nil
			}
		}

		s.config.Logger.Debug("MCP tool request", "tool", tool, "args", len(args))
		return s.result(tool, s.config.Facade.Call(ctx, tool, args)), nil
	}
}

// result renders a facade response as tool content. The worker payload is
// passed through as JSON text; failures are flagged with IsError and carry
// the {"error": ...} object.
func (s *Server) result(tool string, resp query.Response) *mcp.CallToolResult {
	text, err := resp.MarshalJSON()
	if err != nil {
		text = []byte(`{"error":"unencodable response"}`)
	}

	if resp.Failed() {
		s.config.Logger.Debug("MCP tool failed", "tool", tool, "error", resp.Error)
	}

	return &mcp.CallToolResult{
		IsError: resp.Failed(),
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}
}
