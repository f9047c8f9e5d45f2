// Package alerting turns scored projects and milestones into candidate
// alerts with stable fingerprints, and gates their insertion so that at most
// one open alert exists per condition at any time.
package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/scoring"
)

// DeployFailed is the deploy-probe state that triggers a deploy_failed alert.
const DeployFailed = "failed"

// Candidate is an alert produced by the rule engine, not yet persisted.
// The fingerprint identifies the condition instance for deduplication and is
// never exposed to API consumers.
type Candidate struct {
	Level       model.AlertLevel
	Category    model.AlertCategory
	Title       string
	Message     string
	RelatedID   string
	RelatedType string
	Action      string
	Fingerprint string
}

// Fingerprint builds the standard dedup key for a condition.
// Category-specific variants (health_critical, inactive, milestone_overdue)
// are built inline by their rules.
func Fingerprint(category model.AlertCategory, relatedID, relatedType string) string {
	return fmt.Sprintf("%s:%s:%s", category, relatedID, relatedType)
}

// GenerateAlerts evaluates the alert rules. Pure and deterministic: the same
// inputs always produce the same candidates in the same order.
//
// Project rules apply to active projects only; paused, completed, and
// archived projects are never alerted on. The milestone rule applies to any
// non-completed milestone with a target date regardless of project status.
func GenerateAlerts(scored []scoring.ScoredProject, milestones []model.MilestoneWithProject, lastJournal map[string]time.Time, now time.Time) []Candidate {
	var out []Candidate

	for _, sp := range scored {
		p := sp.Project
		if p.Status != model.ProjectActive {
			continue
		}

		if c, ok := degradationAlert(sp); ok {
			out = append(out, c)
		}
		if sp.DeployState == DeployFailed {
			out = append(out, Candidate{
				Level:       model.LevelCritical,
				Category:    model.CategoryDeployFailed,
				Title:       fmt.Sprintf("Deployment failing: %s", p.Name),
				Message:     fmt.Sprintf("The live deployment for %s is not responding.", p.Name),
				RelatedID:   p.ID,
				RelatedType: "project",
				Action:      "Check the deployment logs and roll back if needed",
				Fingerprint: Fingerprint(model.CategoryDeployFailed, p.ID, "project"),
			})
		}
		if c, ok := inactivityAlert(sp, lastJournal, now); ok {
			out = append(out, c)
		}
	}

	for _, m := range milestones {
		if c, ok := overdueMilestoneAlert(m, now); ok {
			out = append(out, c)
		}
	}

	return out
}

// degradationAlert covers two conditions sharing the health_degraded
// category: a drop of more than 10 points against the previously stored
// score, and a project with no baseline at all landing at 30 or below. The
// second carries its own fingerprint so a never-synced project in bad shape
// is still surfaced once.
func degradationAlert(sp scoring.ScoredProject) (Candidate, bool) {
	p := sp.Project
	fresh := sp.Result.Score

	if p.HealthScore == nil {
		if fresh > 30 {
			return Candidate{}, false
		}
		return Candidate{
			Level:       model.LevelCritical,
			Category:    model.CategoryHealthDegraded,
			Title:       fmt.Sprintf("Project health critical: %s", p.Name),
			Message:     fmt.Sprintf("%s scored %d/100 on its first scan. %s", p.Name, fresh, strings.Join(sp.Result.Alerts, ". ")),
			RelatedID:   p.ID,
			RelatedType: "project",
			Action:      "Review the project's deployment, CI, and issue backlog",
			Fingerprint: fmt.Sprintf("health_critical:%s", p.ID),
		}, true
	}

	prior := *p.HealthScore
	if fresh >= prior-10 {
		return Candidate{}, false
	}

	level := model.LevelWarning
	if fresh < 40 {
		level = model.LevelCritical
	}
	return Candidate{
		Level:       level,
		Category:    model.CategoryHealthDegraded,
		Title:       fmt.Sprintf("Health degraded: %s", p.Name),
		Message:     fmt.Sprintf("Health score dropped from %d to %d. %s", prior, fresh, strings.Join(sp.Result.Alerts, ". ")),
		RelatedID:   p.ID,
		RelatedType: "project",
		Action:      "Review recent changes and the factor breakdown",
		Fingerprint: Fingerprint(model.CategoryHealthDegraded, p.ID, "project"),
	}, true
}

// inactivityAlert fires on days since the later of the latest journal entry
// and the project's own updated_at. One fingerprint per project covers both
// the warning and the softer info threshold; while an alert is open the info
// variant never upgrades to warning on re-scan.
func inactivityAlert(sp scoring.ScoredProject, lastJournal map[string]time.Time, now time.Time) (Candidate, bool) {
	p := sp.Project

	last := p.UpdatedAt
	if j, ok := lastJournal[p.ID]; ok && j.After(last) {
		last = j
	}

	days := daysSince(last, now)
	switch {
	case days >= 14:
		return Candidate{
			Level:       model.LevelWarning,
			Category:    model.CategoryProjectInactive,
			Title:       fmt.Sprintf("Project inactive: %s", p.Name),
			Message:     fmt.Sprintf("%s has been inactive for %dd.", p.Name, days),
			RelatedID:   p.ID,
			RelatedType: "project",
			Action:      "Log an update or pause the project",
			Fingerprint: fmt.Sprintf("inactive:%s", p.ID),
		}, true
	case days >= 7:
		return Candidate{
			Level:       model.LevelInfo,
			Category:    model.CategoryProjectInactive,
			Title:       fmt.Sprintf("Things are quiet: %s", p.Name),
			Message:     fmt.Sprintf("%s has been quiet for %dd.", p.Name, days),
			RelatedID:   p.ID,
			RelatedType: "project",
			Fingerprint: fmt.Sprintf("inactive:%s", p.ID),
		}, true
	}
	return Candidate{}, false
}

// overdueMilestoneAlert fires once per milestone: the fingerprint is stable
// as the overdue window grows, so the alert does not re-fire or escalate
// while it remains open.
func overdueMilestoneAlert(m model.MilestoneWithProject, now time.Time) (Candidate, bool) {
	if m.Status == model.MilestoneCompleted || m.TargetDate == nil {
		return Candidate{}, false
	}

	overdue := daysSince(*m.TargetDate, now)
	if overdue <= 0 {
		return Candidate{}, false
	}

	level := model.LevelWarning
	if overdue > 14 {
		level = model.LevelCritical
	}
	return Candidate{
		Level:       level,
		Category:    model.CategoryMilestoneOverdue,
		Title:       fmt.Sprintf("Milestone overdue: %s", m.Title),
		Message:     fmt.Sprintf("%q (%s) is %dd past its target date.", m.Title, m.ProjectName, overdue),
		RelatedID:   m.ID,
		RelatedType: "milestone",
		Action:      "Move the target date or mark the milestone completed",
		Fingerprint: fmt.Sprintf("milestone_overdue:%s", m.ID),
	}, true
}

func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
