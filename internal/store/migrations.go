package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		priority TEXT NOT NULL DEFAULT 'medium',
		repo TEXT,
		live_url TEXT,
		domain TEXT,
		health_score INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);

	CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		target_date INTEGER,
		completion INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'not_started',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_project_created ON journal_entries(project_id, created_at);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		level TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		related_id TEXT,
		related_type TEXT,
		action TEXT,
		fingerprint TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unread',
		created_at INTEGER NOT NULL,
		read_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate v1: %w", err)
	}
	return nil
}

// migrateV2 adds the open-alert uniqueness guard: at most one non-resolved
// alert per fingerprint, so concurrent scans racing on the same condition
// degrade to an ignored insert instead of a duplicate row.
func (s *Store) migrateV2() error {
	schema := `
	CREATE UNIQUE INDEX IF NOT EXISTS ux_alerts_open_fingerprint
		ON alerts(fingerprint) WHERE status != 'resolved';

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2');
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate v2: %w", err)
	}
	return nil
}
