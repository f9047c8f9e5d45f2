// Package server exposes the dashboard REST API over Fiber: project,
// milestone, and journal CRUD, scan triggering, alert listing and status
// transitions, and the ephemeral insight feed.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/devdeck/devdeck/internal/health"
	"github.com/devdeck/devdeck/internal/metrics"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/requestid"
	"github.com/devdeck/devdeck/internal/scan"
	"github.com/devdeck/devdeck/internal/scoring"
	"github.com/devdeck/devdeck/internal/store"
)

// Scanner is the scan surface the API drives: on-demand runs plus the cached
// result of the most recent scan.
type Scanner interface {
	Run(ctx context.Context) (*scan.Summary, error)
	Latest() (scored []scoring.ScoredProject, commits []model.CommitSummary, at time.Time, ok bool)
}

// Config holds configuration for the API server.
type Config struct {
	ListenAddr  string
	Auth        AuthConfig
	CORSOrigins string
}

// Server is the dashboard API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   Config
}

// New creates and configures the API server.
func New(
	cfg Config,
	st *store.Store,
	scanner Scanner,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	handlers := NewHandlers(st, scanner, checker, logger)

	s := &Server{
		app:      app,
		handlers: handlers,
		logger:   logger.With().Str("component", "server").Logger(),
		config:   cfg,
	}

	s.setupMiddleware(cfg, m, logger)
	s.setupRoutes(handlers, m)

	return s
}

func (s *Server) setupMiddleware(cfg Config, m *metrics.Metrics, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		}))
	}

	s.app.Use(newAuthMiddleware(cfg.Auth, logger))

	// Audit middleware (log every request)
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		err := c.Next()

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", c.Response().StatusCode()).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")

		if m != nil {
			m.RecordHTTPRequest(c.Route().Path, fmt.Sprintf("%d", c.Response().StatusCode()))
		}
		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, m *metrics.Metrics) {
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	v1 := s.app.Group("/api/v1")

	v1.Post("/scan", h.TriggerScan)
	v1.Get("/insights", h.ListInsights)

	v1.Get("/alerts", h.ListAlerts)
	v1.Patch("/alerts/status", h.UpdateAlertStatus)

	v1.Get("/projects", h.ListProjects)
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects/:id", h.GetProject)
	v1.Patch("/projects/:id", h.UpdateProject)
	v1.Delete("/projects/:id", h.DeleteProject)

	v1.Get("/projects/:id/milestones", h.ListProjectMilestones)
	v1.Post("/projects/:id/milestones", h.CreateMilestone)
	v1.Get("/milestones", h.ListMilestones)
	v1.Patch("/milestones/:id", h.UpdateMilestone)
	v1.Delete("/milestones/:id", h.DeleteMilestone)

	v1.Get("/projects/:id/journal", h.ListJournalEntries)
	v1.Post("/projects/:id/journal", h.AddJournalEntry)
	v1.Delete("/journal/:id", h.DeleteJournalEntry)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Msg("api server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("api server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
