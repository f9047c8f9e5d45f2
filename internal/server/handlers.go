package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/devdeck/devdeck/internal/health"
	"github.com/devdeck/devdeck/internal/insight"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store   *store.Store
	scanner Scanner
	checker *health.Checker
	logger  zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, scanner Scanner, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:   st,
		scanner: scanner,
		checker: checker,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	checks := h.checker.RunAll(c.Context())
	for _, s := range checks {
		if s == health.StatusDown {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": checks,
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": checks})
}

// TriggerScan handles POST /api/v1/scan.
func (h *Handlers) TriggerScan(c *fiber.Ctx) error {
	if h.scanner == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"scanner_unavailable", "Service Unavailable",
			"Scanning is not configured")
	}

	sum, err := h.scanner.Run(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("scan failed")
		return problemResponse(c, fiber.StatusInternalServerError,
			"scan_failed", "Internal Server Error",
			"The health scan did not complete")
	}
	return c.JSON(sum)
}

// ListInsights handles GET /api/v1/insights. Insights are recomputed from the
// most recent scan on every request and never persisted.
func (h *Handlers) ListInsights(c *fiber.Ctx) error {
	if h.scanner == nil {
		return c.JSON(fiber.Map{"insights": []model.Insight{}})
	}

	scored, commits, at, ok := h.scanner.Latest()
	if !ok {
		return c.JSON(fiber.Map{"insights": []model.Insight{}})
	}

	insights := insight.Generate(scored, commits, time.Now().UTC())
	return c.JSON(fiber.Map{
		"insights":   insights,
		"scanned_at": at,
	})
}

// ListAlerts handles GET /api/v1/alerts?filter=active|resolved|all.
func (h *Handlers) ListAlerts(c *fiber.Ctx) error {
	filter := c.Query("filter", "active")
	alerts, err := h.store.ListAlerts(c.Context(), filter)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_filter", "Bad Request",
			"filter must be one of: active, resolved, all")
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}

// UpdateAlertStatusRequest is the body of PATCH /api/v1/alerts/status.
type UpdateAlertStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// UpdateAlertStatus handles PATCH /api/v1/alerts/status. Only the forward
// transitions unread→read and unread/read→resolved apply; rows not matching
// are skipped, not failed.
func (h *Handlers) UpdateAlertStatus(c *fiber.Ctx) error {
	var req UpdateAlertStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if len(req.IDs) == 0 {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_ids", "Bad Request",
			"ids is required")
	}

	updated, err := h.store.UpdateAlertStatus(c.Context(), req.IDs, model.AlertStatus(req.Status))
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_status", "Bad Request",
			"status must be read or resolved")
	}
	return c.JSON(fiber.Map{"updated": updated})
}
