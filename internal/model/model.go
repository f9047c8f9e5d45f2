// Package model defines the entities shared across the devdeck services:
// projects, milestones, journal entries, alerts, and the GitHub activity
// snapshot supplied by the collaborator in internal/github.
package model

import "time"

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Priority levels for projects and insights.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Project is a tracked project. Repo is an "owner/name" GitHub reference,
// empty for non-code projects. HealthScore is the score persisted by the
// previous scan (nil until the first scan) and is only used to detect
// degradation.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Repo        string        `json:"repo,omitempty"`
	LiveURL     string        `json:"live_url,omitempty"`
	Domain      string        `json:"domain,omitempty"`
	HealthScore *int          `json:"health_score,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// MilestoneStatus is the completion state of a milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Milestone belongs to exactly one project. TargetDate is optional;
// Completion is a percentage in [0,100].
type Milestone struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	Title      string          `json:"title"`
	TargetDate *time.Time      `json:"target_date,omitempty"`
	Completion int             `json:"completion"`
	Status     MilestoneStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MilestoneWithProject joins a milestone with its project's display name,
// the shape the alert rules consume.
type MilestoneWithProject struct {
	Milestone
	ProjectName string `json:"project_name"`
}

// JournalEntry is a dated note attached to a project.
type JournalEntry struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CIState is the conclusion of the most recent CI run on the default branch.
type CIState string

const (
	CISuccess CIState = "success"
	CIFailure CIState = "failure"
	CIUnknown CIState = "unknown"
)

// ActivityLabel is a coarse bucketing of commit recency, computed by the
// GitHub collaborator.
type ActivityLabel string

const (
	ActivityHot     ActivityLabel = "Hot"
	ActivityWarm    ActivityLabel = "Warm"
	ActivityCold    ActivityLabel = "Cold"
	ActivityFrozen  ActivityLabel = "Frozen"
	ActivityUnknown ActivityLabel = "Unknown"
)

// ActivitySnapshot is a point-in-time summary of a repository's state.
// Nil fields mean the data could not be retrieved; that is an expected
// condition, not an error.
type ActivitySnapshot struct {
	LastCommit *time.Time    `json:"last_commit,omitempty"`
	OpenIssues *int          `json:"open_issues,omitempty"`
	CI         CIState       `json:"ci"`
	Activity   ActivityLabel `json:"activity"`
}

// CommitSummary is one recent commit attributed to a project, used by the
// insight generator to find the busiest project of the day.
type CommitSummary struct {
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Message     string    `json:"message,omitempty"`
	CommittedAt time.Time `json:"committed_at"`
}

// AlertLevel is the severity of a persisted alert.
type AlertLevel string

const (
	LevelInfo     AlertLevel = "info"
	LevelWarning  AlertLevel = "warning"
	LevelCritical AlertLevel = "critical"
)

// AlertCategory is the closed set of alert conditions.
type AlertCategory string

const (
	CategoryHealthDegraded   AlertCategory = "health_degraded"
	CategoryDeployFailed     AlertCategory = "deploy_failed"
	CategoryMilestoneOverdue AlertCategory = "milestone_overdue"
	CategoryProjectInactive  AlertCategory = "project_inactive"
)

// AlertStatus is the lifecycle state of a persisted alert.
// unread → read → resolved; resolved is terminal for a row.
type AlertStatus string

const (
	AlertUnread   AlertStatus = "unread"
	AlertRead     AlertStatus = "read"
	AlertResolved AlertStatus = "resolved"
)

// Alert is a persisted alert row. The dedup fingerprint is stored alongside
// but is internal to the engine and never serialized.
type Alert struct {
	ID          string        `json:"id"`
	Level       AlertLevel    `json:"level"`
	Category    AlertCategory `json:"category"`
	Title       string        `json:"title"`
	Message     string        `json:"message"`
	RelatedID   string        `json:"related_id,omitempty"`
	RelatedType string        `json:"related_type,omitempty"`
	Action      string        `json:"action,omitempty"`
	Status      AlertStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ReadAt      *time.Time    `json:"read_at,omitempty"`
}

// InsightType classifies an ephemeral insight.
type InsightType string

const (
	InsightStale      InsightType = "stale"
	InsightActive     InsightType = "active"
	InsightCompletion InsightType = "completion"
	InsightSuggestion InsightType = "suggestion"
	InsightAlert      InsightType = "alert"
)

// Insight is an advisory surfaced to the user. Recomputed on every request,
// never persisted.
type Insight struct {
	ID          string      `json:"id"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ProjectID   string      `json:"project_id,omitempty"`
	ProjectName string      `json:"project_name,omitempty"`
	Priority    Priority    `json:"priority"`
	ActionLabel string      `json:"action_label,omitempty"`
	ActionURL   string      `json:"action_url,omitempty"`
}
