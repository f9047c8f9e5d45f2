package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdeck/devdeck/internal/model"
)

// CreateProjectInput holds the parameters for creating a project.
type CreateProjectInput struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Repo     string `json:"repo"`
	LiveURL  string `json:"live_url"`
	Domain   string `json:"domain"`
}

// UpdateProjectInput holds the parameters for updating a project. Nil fields
// are left unchanged; pointer-to-empty clears a field.
type UpdateProjectInput struct {
	Name     *string `json:"name,omitempty"`
	Status   *string `json:"status,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Repo     *string `json:"repo,omitempty"`
	LiveURL  *string `json:"live_url,omitempty"`
	Domain   *string `json:"domain,omitempty"`
}

const projectColumns = `id, name, status, priority, repo, live_url, domain, health_score, created_at, updated_at`

// CreateProject creates a new project.
func (s *Store) CreateProject(ctx context.Context, input CreateProjectInput) (*model.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if input.Status == "" {
		input.Status = string(model.ProjectActive)
	}
	if input.Priority == "" {
		input.Priority = string(model.PriorityMedium)
	}

	now := time.Now().UTC()
	p := &model.Project{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Status:    model.ProjectStatus(input.Status),
		Priority:  model.Priority(input.Priority),
		Repo:      input.Repo,
		LiveURL:   input.LiveURL,
		Domain:    input.Domain,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
	INSERT INTO projects (id, name, status, priority, repo, live_url, domain, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, string(p.Status), string(p.Priority),
		nullString(p.Repo), nullString(p.LiveURL), nullString(p.Domain),
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// GetProject retrieves a project by ID. Returns nil, nil when not found.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns projects, optionally filtered by status.
func (s *Store) ListProjects(ctx context.Context, status string) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at`
	args := []interface{}{}
	if status != "" {
		query = `SELECT ` + projectColumns + ` FROM projects WHERE status = ? ORDER BY created_at`
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateProject applies a partial update and bumps updated_at.
// Returns nil, nil when the project does not exist.
func (s *Store) UpdateProject(ctx context.Context, id string, input UpdateProjectInput) (*model.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Status != nil {
		p.Status = model.ProjectStatus(*input.Status)
	}
	if input.Priority != nil {
		p.Priority = model.Priority(*input.Priority)
	}
	if input.Repo != nil {
		p.Repo = *input.Repo
	}
	if input.LiveURL != nil {
		p.LiveURL = *input.LiveURL
	}
	if input.Domain != nil {
		p.Domain = *input.Domain
	}
	p.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE projects SET name = ?, status = ?, priority = ?, repo = ?, live_url = ?, domain = ?, updated_at = ?
	WHERE id = ?
	`
	_, err = s.db.ExecContext(ctx, query,
		p.Name, string(p.Status), string(p.Priority),
		nullString(p.Repo), nullString(p.LiveURL), nullString(p.Domain),
		toMillis(p.UpdatedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project and (via foreign keys) its milestones and
// journal entries.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveHealthScores writes freshly computed scores back to the project rows.
// Deliberately leaves updated_at alone: a scan is not user activity.
func (s *Store) SaveHealthScores(ctx context.Context, scores map[string]int) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for id, score := range scores {
		if _, err := tx.ExecContext(ctx, `UPDATE projects SET health_score = ? WHERE id = ?`, score, id); err != nil {
			return fmt.Errorf("failed to save health score for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(r rowScanner) (*model.Project, error) {
	var p model.Project
	var repo, liveURL, domain sql.NullString
	var healthScore sql.NullInt64
	var createdAt, updatedAt int64

	err := r.Scan(&p.ID, &p.Name, (*string)(&p.Status), (*string)(&p.Priority),
		&repo, &liveURL, &domain, &healthScore, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Repo = repo.String
	p.LiveURL = liveURL.String
	p.Domain = domain.String
	if healthScore.Valid {
		score := int(healthScore.Int64)
		p.HealthScore = &score
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}
