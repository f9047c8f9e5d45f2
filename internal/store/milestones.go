package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdeck/devdeck/internal/model"
)

// CreateMilestoneInput holds the parameters for creating a milestone.
type CreateMilestoneInput struct {
	Title      string     `json:"title"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	Completion int        `json:"completion"`
	Status     string     `json:"status"`
}

// UpdateMilestoneInput holds the parameters for a partial milestone update.
type UpdateMilestoneInput struct {
	Title      *string    `json:"title,omitempty"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	ClearDate  bool       `json:"clear_date,omitempty"`
	Completion *int       `json:"completion,omitempty"`
	Status     *string    `json:"status,omitempty"`
}

const milestoneColumns = `id, project_id, title, target_date, completion, status, created_at, updated_at`

// CreateMilestone creates a milestone under a project.
func (s *Store) CreateMilestone(ctx context.Context, projectID string, input CreateMilestoneInput) (*model.Milestone, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("milestone title is required")
	}
	if input.Status == "" {
		input.Status = string(model.MilestoneNotStarted)
	}
	if input.Completion < 0 || input.Completion > 100 {
		return nil, fmt.Errorf("completion must be within [0,100]")
	}

	now := time.Now().UTC()
	m := &model.Milestone{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Title:      input.Title,
		TargetDate: input.TargetDate,
		Completion: input.Completion,
		Status:     model.MilestoneStatus(input.Status),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
	INSERT INTO milestones (id, project_id, title, target_date, completion, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.ProjectID, m.Title, toNullMillis(m.TargetDate),
		m.Completion, string(m.Status), toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}
	return m, nil
}

// GetMilestone retrieves a milestone by ID. Returns nil, nil when not found.
func (s *Store) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = ?`, id)
	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

// ListProjectMilestones returns all milestones for one project.
func (s *Store) ListProjectMilestones(ctx context.Context, projectID string) ([]model.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var out []model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListMilestonesWithProject returns all milestones joined with their
// project's display name, the shape the alert rules consume.
func (s *Store) ListMilestonesWithProject(ctx context.Context) ([]model.MilestoneWithProject, error) {
	query := `
	SELECT m.id, m.project_id, m.title, m.target_date, m.completion, m.status, m.created_at, m.updated_at, p.name
	FROM milestones m JOIN projects p ON p.id = m.project_id
	ORDER BY m.created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var out []model.MilestoneWithProject
	for rows.Next() {
		var m model.MilestoneWithProject
		var target sql.NullInt64
		var createdAt, updatedAt int64
		err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &target, &m.Completion,
			(*string)(&m.Status), &createdAt, &updatedAt, &m.ProjectName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		m.TargetDate = fromNullMillis(target)
		m.CreatedAt = fromMillis(createdAt)
		m.UpdatedAt = fromMillis(updatedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMilestone applies a partial update. Returns nil, nil when not found.
func (s *Store) UpdateMilestone(ctx context.Context, id string, input UpdateMilestoneInput) (*model.Milestone, error) {
	m, err := s.GetMilestone(ctx, id)
	if err != nil || m == nil {
		return m, err
	}

	if input.Title != nil {
		m.Title = *input.Title
	}
	if input.ClearDate {
		m.TargetDate = nil
	} else if input.TargetDate != nil {
		m.TargetDate = input.TargetDate
	}
	if input.Completion != nil {
		if *input.Completion < 0 || *input.Completion > 100 {
			return nil, fmt.Errorf("completion must be within [0,100]")
		}
		m.Completion = *input.Completion
	}
	if input.Status != nil {
		m.Status = model.MilestoneStatus(*input.Status)
	}
	m.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE milestones SET title = ?, target_date = ?, completion = ?, status = ?, updated_at = ?
	WHERE id = ?
	`
	_, err = s.db.ExecContext(ctx, query,
		m.Title, toNullMillis(m.TargetDate), m.Completion, string(m.Status), toMillis(m.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	return m, nil
}

// DeleteMilestone removes a milestone.
func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanMilestone(r rowScanner) (*model.Milestone, error) {
	var m model.Milestone
	var target sql.NullInt64
	var createdAt, updatedAt int64

	err := r.Scan(&m.ID, &m.ProjectID, &m.Title, &target, &m.Completion,
		(*string)(&m.Status), &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.TargetDate = fromNullMillis(target)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return &m, nil
}
