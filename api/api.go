package api

import (
	"errors"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memhooks/pkg/hook"
	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/plugin"
	"github.com/papercomputeco/memhooks/pkg/query"
)

// Server is the hook bridge. Each instance key owns one plugin instance and
// therefore one session; instances never share state.
type Server struct {
	config Config
	facade *query.Facade
	app    *fiber.App

	mu        sync.RWMutex
	instances map[string]*plugin.Plugin
}

// NewServer creates a bridge server.
func NewServer(c Config) (*Server, error) {
	if c.Worker == nil {
		return nil, errors.New("worker is required")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	c.Logger = c.Logger.With("component", "bridge")

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    c,
		facade:    query.NewFacade(c.Worker, c.Logger),
		app:       app,
		instances: map[string]*plugin.Plugin{},
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/instances/:instance/hooks/:event", s.handleHook)
	v1.Post("/instances/:instance/system", s.handleSystemTransform)
	v1.Get("/instances/:instance/session", s.handleGetSession)
	v1.Delete("/instances/:instance", s.handleDeleteInstance)
	v1.Get("/tools", s.handleListTools)
	v1.Post("/tools/:tool", s.handleTool)

	if c.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(c.MCPHandler))
	}

	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the bridge on the configured address.
func (s *Server) Run() error {
	s.config.Logger.Info("starting hook bridge", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the bridge.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// instance returns the plugin for key, creating it for platform on first
// use. An existing instance must be asked for with the same platform.
func (s *Server) instance(key string, platform hook.Platform) (*plugin.Plugin, error) {
	s.mu.RLock()
	p, ok := s.instances[key]
	s.mu.RUnlock()
	if ok {
		return checkPlatform(p, platform)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.instances[key]; ok {
		return checkPlatform(p, platform)
	}

	p, err := plugin.New(plugin.Config{
		Platform:  platform,
		Worker:    s.config.Worker,
		Publisher: s.config.Publisher,
		Project:   s.config.Project,
		Logger:    s.config.Logger.With("instance", key),
	})
	if err != nil {
		return nil, err
	}

	s.instances[key] = p
	s.config.Logger.Debug("plugin instance created",
		"instance", key,
		"platform", string(platform),
		"session", p.Session().SessionID,
	)
	return p, nil
}

func (s *Server) lookup(key string) (*plugin.Plugin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.instances[key]
	return p, ok
}

func (s *Server) remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.instances[key]
	delete(s.instances, key)
	return ok
}

var errPlatformMismatch = errors.New("instance already bound to another platform")

func checkPlatform(p *plugin.Plugin, platform hook.Platform) (*plugin.Plugin, error) {
	if p.Platform() != platform {
		return nil, errPlatformMismatch
	}
	return p, nil
}
