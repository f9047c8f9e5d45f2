package server

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/devdeck/devdeck/internal/store"
)

// ListProjects handles GET /api/v1/projects?status=.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context(), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var input store.CreateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	p, err := h.store.CreateProject(c.Context(), input)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_project", "Bad Request", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.store.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"No project with that ID")
	}
	return c.JSON(p)
}

// UpdateProject handles PATCH /api/v1/projects/:id.
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	var input store.UpdateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	p, err := h.store.UpdateProject(c.Context(), c.Params("id"), input)
	if err != nil {
		return err
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"No project with that ID")
	}
	return c.JSON(p)
}

// DeleteProject handles DELETE /api/v1/projects/:id.
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	if err := h.store.DeleteProject(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return problemResponse(c, fiber.StatusNotFound,
				"project_not_found", "Not Found",
				"No project with that ID")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListProjectMilestones handles GET /api/v1/projects/:id/milestones.
func (h *Handlers) ListProjectMilestones(c *fiber.Ctx) error {
	milestones, err := h.store.ListProjectMilestones(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"milestones": milestones})
}

// ListMilestones handles GET /api/v1/milestones, across all projects.
func (h *Handlers) ListMilestones(c *fiber.Ctx) error {
	milestones, err := h.store.ListMilestonesWithProject(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"milestones": milestones})
}

// CreateMilestone handles POST /api/v1/projects/:id/milestones.
func (h *Handlers) CreateMilestone(c *fiber.Ctx) error {
	projectID := c.Params("id")
	p, err := h.store.GetProject(c.Context(), projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"No project with that ID")
	}

	var input store.CreateMilestoneInput
	if err := c.BodyParser(&input); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	m, err := h.store.CreateMilestone(c.Context(), projectID, input)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_milestone", "Bad Request", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// UpdateMilestone handles PATCH /api/v1/milestones/:id.
func (h *Handlers) UpdateMilestone(c *fiber.Ctx) error {
	var input store.UpdateMilestoneInput
	if err := c.BodyParser(&input); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	m, err := h.store.UpdateMilestone(c.Context(), c.Params("id"), input)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_milestone", "Bad Request", err.Error())
	}
	if m == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"milestone_not_found", "Not Found",
			"No milestone with that ID")
	}
	return c.JSON(m)
}

// DeleteMilestone handles DELETE /api/v1/milestones/:id.
func (h *Handlers) DeleteMilestone(c *fiber.Ctx) error {
	if err := h.store.DeleteMilestone(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return problemResponse(c, fiber.StatusNotFound,
				"milestone_not_found", "Not Found",
				"No milestone with that ID")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddJournalEntryRequest is the body of POST /api/v1/projects/:id/journal.
type AddJournalEntryRequest struct {
	Content string `json:"content"`
}

// AddJournalEntry handles POST /api/v1/projects/:id/journal.
func (h *Handlers) AddJournalEntry(c *fiber.Ctx) error {
	projectID := c.Params("id")
	p, err := h.store.GetProject(c.Context(), projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"No project with that ID")
	}

	var req AddJournalEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	e, err := h.store.AddJournalEntry(c.Context(), projectID, req.Content)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_entry", "Bad Request", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// ListJournalEntries handles GET /api/v1/projects/:id/journal?limit=.
func (h *Handlers) ListJournalEntries(c *fiber.Ctx) error {
	entries, err := h.store.ListJournalEntries(c.Context(), c.Params("id"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// DeleteJournalEntry handles DELETE /api/v1/journal/:id.
func (h *Handlers) DeleteJournalEntry(c *fiber.Ctx) error {
	if err := h.store.DeleteJournalEntry(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return problemResponse(c, fiber.StatusNotFound,
				"entry_not_found", "Not Found",
				"No journal entry with that ID")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
