// Package server exposes the streaming TTS service: a websocket
// endpoint speaking the text-in/audio-out protocol, a health probe and
// static assets for the demo frontend. Each connection runs its own
// protocol loop; sessions never share state beyond the registry.
package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/voxkit/streamtts/internal/log"
	"github.com/voxkit/streamtts/pkg/engine"
	"github.com/voxkit/streamtts/pkg/session"
)

// Config holds the server's construction parameters.
type Config struct {
	// Addr is the listen address (host:port).
	Addr string

	// StaticDir is served at the root for the demo frontend.
	StaticDir string

	// TargetSampleRate is the rate of the PCM payload sent to clients.
	TargetSampleRate int
}

// Server is the streaming TTS websocket service.
type Server struct {
	app      *fiber.App
	cfg      Config
	synth    engine.Synthesizer
	registry *session.Registry
	logger   *slog.Logger
}

// New creates the service around a speech backend chosen by the caller.
func New(cfg Config, synth engine.Synthesizer) *Server {
	s := &Server{
		cfg:      cfg,
		synth:    synth,
		registry: session.NewRegistry(),
		logger:   log.With("component", "server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "streamtts",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	app.Get("/health", s.handleHealth)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleWS))

	s.app = app
	return s
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.cfg.Addr, "engine", s.synth.Name())
	return s.app.Listen(s.cfg.Addr)
}

// Serve accepts connections from an existing listener. Tests use this
// with an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops accepting connections and releases every session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.registry.CloseAll()
	return err
}

// ActiveSessions reports the number of connected sessions.
func (s *Server) ActiveSessions() int {
	return s.registry.Count()
}

// handleHealth reports readiness: which backend is serving (a mock is
// distinguishable from the real one) and how many sessions are live.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "healthy",
		"engine_ready":    s.synth.Ready(),
		"engine":          s.synth.Name(),
		"active_sessions": s.ActiveSessions(),
	})
}
