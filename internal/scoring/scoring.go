// Package scoring computes a project's health score from its lifecycle state
// and GitHub activity snapshot. Scoring is a pure function: no I/O, no error
// path, every input combination maps to a defined result.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/devdeck/devdeck/internal/model"
)

// Status is a coarse bucketing of the numeric health score.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
	StatusCritical  Status = "critical"
)

// Factors are the five weighted sub-scores. Simplified weighting:
// 30/25/25/15/5. The sum of the factors always equals the total score.
type Factors struct {
	CommitActivity   int `json:"commitActivity"`   // 0–30
	DeploymentStatus int `json:"deploymentStatus"` // 0–25
	IssueHealth      int `json:"issueHealth"`      // 0–25
	CIStatus         int `json:"ciStatus"`         // 0–15
	Freshness        int `json:"freshness"`        // 0–5
}

// Result is the outcome of scoring one project.
type Result struct {
	Score   int      `json:"score"`
	Factors Factors  `json:"factors"`
	Status  Status   `json:"status"`
	Alerts  []string `json:"alerts"`
}

// ScoredProject pairs a project with its snapshot and fresh score, the unit
// the alert rules and insight generator operate on. DeployState is supplied
// by the orchestrator's deployment probe ("ok", "failed", or empty when not
// probed).
type ScoredProject struct {
	Project     model.Project           `json:"project"`
	Snapshot    *model.ActivitySnapshot `json:"snapshot,omitempty"`
	Result      Result                  `json:"result"`
	DeployState string                  `json:"deploy_state,omitempty"`
}

// Score computes the health result for one project. snap may be nil when the
// project has no repository or the fetch failed; both are defined inputs.
//
// Lifecycle-terminal projects are not scored on activity: archived projects
// pin to 50/fair, completed projects to 100/excellent, both with zero
// factors and no alerts.
func Score(p model.Project, snap *model.ActivitySnapshot, now time.Time) Result {
	switch p.Status {
	case model.ProjectArchived:
		return Result{Score: 50, Status: StatusFair, Alerts: []string{}}
	case model.ProjectCompleted:
		return Result{Score: 100, Status: StatusExcellent, Alerts: []string{}}
	}

	var f Factors
	alerts := []string{}

	// Evaluation order matters: commit → deploy → issues → CI → freshness.
	// Consumers display alerts[0] as the headline reason.
	f.CommitActivity = scoreCommitActivity(p, snap, now, &alerts)
	f.DeploymentStatus = scoreDeployment(p, &alerts)
	f.IssueHealth = scoreIssueHealth(p, snap, &alerts)
	f.CIStatus = scoreCI(snap, &alerts)
	f.Freshness = scoreFreshness(p, now, &alerts)

	total := f.CommitActivity + f.DeploymentStatus + f.IssueHealth + f.CIStatus + f.Freshness
	return Result{
		Score:   total,
		Factors: f,
		Status:  StatusForScore(total),
		Alerts:  alerts,
	}
}

// StatusForScore maps a score to its tier. Pure step function.
func StatusForScore(score int) Status {
	switch {
	case score >= 85:
		return StatusExcellent
	case score >= 70:
		return StatusGood
	case score >= 50:
		return StatusFair
	case score >= 30:
		return StatusPoor
	default:
		return StatusCritical
	}
}

func scoreCommitActivity(p model.Project, snap *model.ActivitySnapshot, now time.Time, alerts *[]string) int {
	if snap != nil && snap.LastCommit != nil {
		switch days := daysSince(*snap.LastCommit, now); {
		case days <= 1:
			return 30
		case days <= 3:
			return 25
		case days <= 7:
			return 20
		case days <= 14:
			return 15
		case days <= 30:
			*alerts = append(*alerts, "No commits in 2+ weeks")
			return 8
		case days <= 60:
			*alerts = append(*alerts, "Stale: no commits in 30+ days")
			return 5
		default:
			*alerts = append(*alerts, "Very stale: no commits in 60+ days")
			return 2
		}
	}
	if p.Repo != "" {
		*alerts = append(*alerts, "Could not fetch commit data")
		return 5
	}
	// Non-code projects are not penalized for lacking commits.
	return 18
}

func scoreDeployment(p model.Project, alerts *[]string) int {
	if p.LiveURL == "" {
		if p.Status == model.ProjectActive {
			*alerts = append(*alerts, "No live deployment")
			return 0
		}
		return 12
	}

	score := 15
	if p.Domain != "" {
		score += 5
	}
	if strings.HasPrefix(p.LiveURL, "https://") {
		score += 3
	}
	if !strings.Contains(p.LiveURL, "localhost") &&
		!strings.Contains(p.LiveURL, "staging") &&
		!strings.Contains(p.LiveURL, "dev.") {
		score += 2
	}
	if score > 25 {
		score = 25
	}
	return score
}

func scoreIssueHealth(p model.Project, snap *model.ActivitySnapshot, alerts *[]string) int {
	if snap != nil && snap.OpenIssues != nil {
		switch n := *snap.OpenIssues; {
		case n == 0:
			return 25
		case n <= 3:
			return 20
		case n <= 10:
			*alerts = append(*alerts, fmt.Sprintf("%d open issues", n))
			return 15
		default:
			*alerts = append(*alerts, fmt.Sprintf("%d open issues need attention", n))
			return 10
		}
	}
	if p.Repo != "" {
		return 15
	}
	// No repository means no issues are possible.
	return 20
}

func scoreCI(snap *model.ActivitySnapshot, alerts *[]string) int {
	if snap == nil {
		return 10
	}
	switch snap.CI {
	case model.CISuccess:
		return 15
	case model.CIFailure:
		*alerts = append(*alerts, "CI/CD pipeline failing")
		return 3
	default:
		return 10
	}
}

func scoreFreshness(p model.Project, now time.Time, alerts *[]string) int {
	switch days := daysSince(p.UpdatedAt, now); {
	case days <= 1:
		return 5
	case days <= 7:
		return 4
	case days <= 30:
		return 3
	case days <= 90:
		return 2
	default:
		if p.Status == model.ProjectActive {
			*alerts = append(*alerts, "No project activity in 90+ days")
		}
		return 1
	}
}

func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
