package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devdeck/devdeck/internal/alerting"
	"github.com/devdeck/devdeck/internal/model"
)

const alertColumns = `id, level, category, title, message, related_id, related_type, action, status, created_at, read_at`

// OpenFingerprints returns the fingerprints of all alerts not yet resolved.
// Implements alerting.AlertStore.
func (s *Store) OpenFingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint FROM alerts WHERE status != ?`, string(model.AlertResolved))
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

// InsertCandidates persists candidate alerts as unread rows. Implements
// alerting.AlertStore. INSERT OR IGNORE rides the partial unique index on
// open fingerprints, so a candidate raced in by a concurrent scan is skipped
// rather than duplicated; the returned count reflects rows actually written.
func (s *Store) InsertCandidates(ctx context.Context, candidates []alerting.Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	now := toMillis(time.Now().UTC())
	inserted := 0
	for _, c := range candidates {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO alerts
				(id, level, category, title, message, related_id, related_type, action, fingerprint, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), string(c.Level), string(c.Category), c.Title, c.Message,
			nullString(c.RelatedID), nullString(c.RelatedType), nullString(c.Action),
			c.Fingerprint, string(model.AlertUnread), now,
		)
		if err != nil {
			// Partial failure is reported, not rolled back: alerts already
			// written stay written.
			return inserted, fmt.Errorf("failed to insert alert %s: %w", c.Fingerprint, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// ListAlerts returns alerts by filter: "active" (unread/read), "resolved",
// or "all". Newest first.
func (s *Store) ListAlerts(ctx context.Context, filter string) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	var args []interface{}
	switch filter {
	case "", "active":
		query += ` WHERE status != ?`
		args = append(args, string(model.AlertResolved))
	case "resolved":
		query += ` WHERE status = ?`
		args = append(args, string(model.AlertResolved))
	case "all":
	default:
		return nil, fmt.Errorf("unknown alert filter %q", filter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		var a model.Alert
		var relatedID, relatedType, action sql.NullString
		var createdAt int64
		var readAt sql.NullInt64
		err := rows.Scan(&a.ID, (*string)(&a.Level), (*string)(&a.Category), &a.Title, &a.Message,
			&relatedID, &relatedType, &action, (*string)(&a.Status), &createdAt, &readAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.RelatedID = relatedID.String
		a.RelatedType = relatedType.String
		a.Action = action.String
		a.CreatedAt = fromMillis(createdAt)
		a.ReadAt = fromNullMillis(readAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAlertStatus moves the given alerts to the target status and returns
// how many rows changed. Valid moves only: unread→read (stamps read_at) and
// unread/read→resolved. Rows in other states are left untouched.
func (s *Store) UpdateAlertStatus(ctx context.Context, ids []string, status model.AlertStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	now := toMillis(time.Now().UTC())

	var query string
	args := make([]interface{}, 0, len(ids)+2)
	switch status {
	case model.AlertRead:
		query = `UPDATE alerts SET status = 'read', read_at = ? WHERE id IN (` + placeholders + `) AND status = 'unread'`
		args = append(args, now)
	case model.AlertResolved:
		query = `UPDATE alerts SET status = 'resolved' WHERE id IN (` + placeholders + `) AND status IN ('unread', 'read')`
	default:
		return 0, fmt.Errorf("invalid target status %q", status)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update alert status: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
