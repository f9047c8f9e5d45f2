package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdeck/devdeck/internal/model"
)

// AddJournalEntry appends a dated note to a project.
func (s *Store) AddJournalEntry(ctx context.Context, projectID, content string) (*model.JournalEntry, error) {
	if content == "" {
		return nil, fmt.Errorf("journal content is required")
	}

	e := &model.JournalEntry{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, project_id, content, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Content, toMillis(e.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add journal entry: %w", err)
	}
	return e, nil
}

// ListJournalEntries returns a project's entries, newest first.
func (s *Store) ListJournalEntries(ctx context.Context, projectID string, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, content, created_at FROM journal_entries
		 WHERE project_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var out []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteJournalEntry removes one entry.
func (s *Store) DeleteJournalEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LatestJournalTimes returns the most recent entry timestamp per project,
// the inactivity rule's journal signal.
func (s *Store) LatestJournalTimes(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, MAX(created_at) FROM journal_entries GROUP BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal recency: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var projectID string
		var ms int64
		if err := rows.Scan(&projectID, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan journal recency: %w", err)
		}
		out[projectID] = fromMillis(ms)
	}
	return out, rows.Err()
}
