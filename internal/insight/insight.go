// Package insight derives ephemeral, advisory insights from scored projects
// and recent commit activity. Insights are recomputed on every request and
// never persisted.
package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/scoring"
)

// MaxInsights caps the list returned to the UI.
const MaxInsights = 8

// staleAfterDays is the inactivity window for the stale cluster insight.
const staleAfterDays = 7

// Generate builds the ranked insight list. Pure and side-effect-free apart
// from ID generation. Results are stable-sorted by priority (high before
// medium before low); ties keep emission order, and the list is truncated to
// MaxInsights.
func Generate(scored []scoring.ScoredProject, commits []model.CommitSummary, now time.Time) []model.Insight {
	var out []model.Insight

	if in, ok := staleCluster(scored, now); ok {
		out = append(out, in)
	}
	if in, ok := mostActiveToday(commits, now); ok {
		out = append(out, in)
	}
	out = append(out, hotProjects(scored)...)
	out = append(out, ciFailures(scored)...)
	out = append(out, issueBacklogs(scored)...)

	rank := map[model.Priority]int{
		model.PriorityHigh:   0,
		model.PriorityMedium: 1,
		model.PriorityLow:    2,
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Priority] < rank[out[j].Priority]
	})

	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}

// staleCluster collects every active project without activity for a week
// into one combined insight.
func staleCluster(scored []scoring.ScoredProject, now time.Time) (model.Insight, bool) {
	var names []string
	for _, sp := range scored {
		if sp.Project.Status != model.ProjectActive {
			continue
		}
		if daysSinceActivity(sp, now) >= staleAfterDays {
			names = append(names, sp.Project.Name)
		}
	}
	if len(names) == 0 {
		return model.Insight{}, false
	}

	priority := model.PriorityMedium
	if len(names) > 3 {
		priority = model.PriorityHigh
	}
	return model.Insight{
		ID:          uuid.New().String(),
		Type:        model.InsightStale,
		Title:       fmt.Sprintf("%d project(s) going stale", len(names)),
		Description: fmt.Sprintf("No activity in %d+ days: %s", staleAfterDays, strings.Join(names, ", ")),
		Priority:    priority,
	}, true
}

// mostActiveToday finds the project with the most commits dated today.
func mostActiveToday(commits []model.CommitSummary, now time.Time) (model.Insight, bool) {
	counts := map[string]int{}
	names := map[string]string{}
	for _, c := range commits {
		if !sameDay(c.CommittedAt, now) {
			continue
		}
		counts[c.ProjectID]++
		names[c.ProjectID] = c.ProjectName
	}

	bestID, best := "", 0
	for id, n := range counts {
		if n > best || (n == best && id < bestID) {
			bestID, best = id, n
		}
	}
	if best <= 1 {
		return model.Insight{}, false
	}

	return model.Insight{
		ID:          uuid.New().String(),
		Type:        model.InsightActive,
		Title:       fmt.Sprintf("%s is on fire", names[bestID]),
		Description: fmt.Sprintf("%d commits today — your most active project right now.", best),
		ProjectID:   bestID,
		ProjectName: names[bestID],
		Priority:    model.PriorityLow,
	}, true
}

func hotProjects(scored []scoring.ScoredProject) []model.Insight {
	var out []model.Insight
	for _, sp := range scored {
		if sp.Project.Status != model.ProjectActive || sp.Snapshot == nil {
			continue
		}
		if sp.Snapshot.Activity != model.ActivityHot {
			continue
		}
		out = append(out, model.Insight{
			ID:          uuid.New().String(),
			Type:        model.InsightActive,
			Title:       fmt.Sprintf("%s is hot", sp.Project.Name),
			Description: "Frequent recent commits — momentum is on your side.",
			ProjectID:   sp.Project.ID,
			ProjectName: sp.Project.Name,
			Priority:    model.PriorityLow,
		})
	}
	return out
}

func ciFailures(scored []scoring.ScoredProject) []model.Insight {
	var out []model.Insight
	for _, sp := range scored {
		if sp.Project.Status != model.ProjectActive || sp.Snapshot == nil {
			continue
		}
		if sp.Snapshot.CI != model.CIFailure {
			continue
		}
		out = append(out, model.Insight{
			ID:          uuid.New().String(),
			Type:        model.InsightAlert,
			Title:       fmt.Sprintf("CI failing on %s", sp.Project.Name),
			Description: "The latest pipeline run on the default branch failed.",
			ProjectID:   sp.Project.ID,
			ProjectName: sp.Project.Name,
			Priority:    model.PriorityHigh,
			ActionLabel: "View Actions",
			ActionURL:   fmt.Sprintf("https://github.com/%s/actions", sp.Project.Repo),
		})
	}
	return out
}

func issueBacklogs(scored []scoring.ScoredProject) []model.Insight {
	var out []model.Insight
	for _, sp := range scored {
		if sp.Project.Status != model.ProjectActive || sp.Snapshot == nil || sp.Snapshot.OpenIssues == nil {
			continue
		}
		n := *sp.Snapshot.OpenIssues
		if n <= 5 {
			continue
		}
		out = append(out, model.Insight{
			ID:          uuid.New().String(),
			Type:        model.InsightSuggestion,
			Title:       fmt.Sprintf("Issue backlog on %s", sp.Project.Name),
			Description: fmt.Sprintf("%d open issues — worth a triage pass.", n),
			ProjectID:   sp.Project.ID,
			ProjectName: sp.Project.Name,
			Priority:    model.PriorityMedium,
			ActionLabel: "View Issues",
			ActionURL:   fmt.Sprintf("https://github.com/%s/issues", sp.Project.Repo),
		})
	}
	return out
}

// daysSinceActivity uses the later of the last commit and the project's own
// updated_at, the two activity signals the data model carries.
func daysSinceActivity(sp scoring.ScoredProject, now time.Time) int {
	last := sp.Project.UpdatedAt
	if sp.Snapshot != nil && sp.Snapshot.LastCommit != nil && sp.Snapshot.LastCommit.After(last) {
		last = *sp.Snapshot.LastCommit
	}
	return int(now.Sub(last).Hours() / 24)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
