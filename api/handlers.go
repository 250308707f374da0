package api

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/plugin"
	"github.com/papercomputeco/memhooks/pkg/query"
)

// ErrorResponse is the body of every bridge-level failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SystemResponse is returned by the system-transform endpoint.
type SystemResponse struct {
	System []string `json:"system"`
}

// ToolInfo describes one query tool.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleHook runs one lifecycle event through the instance's plugin and
// returns the host-shaped output. Only malformed bridge requests fail; the
// host payload itself is never rejected.
func (s *Server) handleHook(c *fiber.Ctx) error {
	kind, ok := hook.ParseEventKind(c.Params("event"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: fmt.Sprintf("unknown event %q (available: %v)", c.Params("event"), hook.EventKinds()),
		})
	}

	p, err := s.instanceFor(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	out := p.Handle(c.UserContext(), kind, c.Body())
	return c.JSON(out)
}

// handleSystemTransform appends memory context to the system prompt carried
// in the request body.
func (s *Server) handleSystemTransform(c *fiber.Ctx) error {
	p, err := s.instanceFor(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	system := p.SystemTransform(c.UserContext(), c.Body(), nil)
	if system == nil {
		system = []string{}
	}
	return c.JSON(SystemResponse{System: system})
}

// handleGetSession returns the session snapshot of an instance.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	p, ok := s.lookup(c.Params("instance"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "instance not found"})
	}
	return c.JSON(p.Session())
}

// handleDeleteInstance forgets an instance, ending its session.
func (s *Server) handleDeleteInstance(c *fiber.Ctx) error {
	if !s.remove(c.Params("instance")) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "instance not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleListTools describes the query tools.
func (s *Server) handleListTools(c *fiber.Ctx) error {
	tools := query.Tools()
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema.JSON(),
		})
	}
	return c.JSON(out)
}

// handleTool runs a query tool. Tool failures are data, so they are
// returned with status 200 as {"error": ...}.
func (s *Server) handleTool(c *fiber.Ctx) error {
	tool := c.Params("tool")
	if !knownTool(tool) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: fmt.Sprintf("unknown tool %q", tool)})
	}

	args := map[string]any{}
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "arguments must be a JSON object"})
		}
	}

	resp := s.facade.Call(c.UserContext(), tool, args)
	return c.JSON(resp)
}

func (s *Server) instanceFor(c *fiber.Ctx) (*plugin.Plugin, error) {
	platform := hook.Platform(c.Query("platform", string(hook.PlatformOpenCode)))
	if _, ok := hook.Lookup(platform); !ok {
		return nil, fmt.Errorf("unsupported platform %q (available: %v)", platform, hook.Platforms())
	}
	// Params alias the pooled request buffer; the key outlives the request.
	return s.instance(utils.CopyString(c.Params("instance")), platform)
}

func knownTool(name string) bool {
	for _, t := range query.Tools() {
		if t.Name == name {
			return true
		}
	}
	return false
}
