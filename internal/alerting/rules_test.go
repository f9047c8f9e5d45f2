package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/scoring"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func intPtr(n int) *int { return &n }

func activeProject(id, name string, prior *int, updated time.Time) scoring.ScoredProject {
	p := model.Project{
		ID:          id,
		Name:        name,
		Status:      model.ProjectActive,
		HealthScore: prior,
		UpdatedAt:   updated,
	}
	return scoring.ScoredProject{
		Project: p,
		Result:  scoring.Score(p, nil, testNow),
	}
}

func TestGenerateAlerts_IgnoresNonActiveProjects(t *testing.T) {
	paused := activeProject("p1", "Paused", intPtr(90), daysAgo(60))
	paused.Project.Status = model.ProjectPaused
	archived := activeProject("p2", "Archived", nil, daysAgo(60))
	archived.Project.Status = model.ProjectArchived

	got := GenerateAlerts([]scoring.ScoredProject{paused, archived}, nil, nil, testNow)
	assert.Empty(t, got)
}

func TestGenerateAlerts_HealthDegraded(t *testing.T) {
	sp := activeProject("p1", "Site", intPtr(80), daysAgo(1))
	sp.Result = scoring.Result{Score: 65, Status: scoring.StatusFair, Alerts: []string{"No live deployment", "CI/CD pipeline failing"}}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, model.CategoryHealthDegraded, a.Category)
	assert.Equal(t, model.LevelWarning, a.Level)
	assert.Contains(t, a.Message, "from 80 to 65")
	assert.Contains(t, a.Message, "No live deployment. CI/CD pipeline failing")
	assert.Equal(t, "health_degraded:p1:project", a.Fingerprint)
}

func TestGenerateAlerts_HealthDegradedCriticalBelow40(t *testing.T) {
	sp := activeProject("p1", "Site", intPtr(70), daysAgo(1))
	sp.Result = scoring.Result{Score: 35, Status: scoring.StatusPoor, Alerts: []string{}}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, model.LevelCritical, got[0].Level)
}

func TestGenerateAlerts_DropWithinToleranceIsQuiet(t *testing.T) {
	sp := activeProject("p1", "Site", intPtr(75), daysAgo(1))
	sp.Result = scoring.Result{Score: 65, Status: scoring.StatusFair, Alerts: []string{}}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	assert.Empty(t, got, "a 10-point drop is within tolerance")
}

func TestGenerateAlerts_CriticalWithoutBaseline(t *testing.T) {
	sp := activeProject("p1", "New Thing", nil, daysAgo(1))
	sp.Result = scoring.Result{Score: 28, Status: scoring.StatusCritical, Alerts: []string{"No live deployment"}}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, model.CategoryHealthDegraded, a.Category)
	assert.Equal(t, model.LevelCritical, a.Level)
	assert.Equal(t, "health_critical:p1", a.Fingerprint)
}

func TestGenerateAlerts_NoBaselineAbove30IsQuiet(t *testing.T) {
	sp := activeProject("p1", "New Thing", nil, daysAgo(1))
	sp.Result = scoring.Result{Score: 31, Status: scoring.StatusPoor, Alerts: []string{}}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	assert.Empty(t, got)
}

func TestGenerateAlerts_DeployFailed(t *testing.T) {
	sp := activeProject("p1", "Site", intPtr(80), daysAgo(1))
	sp.Result = scoring.Result{Score: 80, Status: scoring.StatusGood, Alerts: []string{}}
	sp.DeployState = DeployFailed

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, nil, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, model.CategoryDeployFailed, got[0].Category)
	assert.Equal(t, model.LevelCritical, got[0].Level)
	assert.Equal(t, "deploy_failed:p1:project", got[0].Fingerprint)
}

func TestGenerateAlerts_Inactivity(t *testing.T) {
	warn := activeProject("p1", "Old", intPtr(80), daysAgo(20))
	warn.Result = scoring.Result{Score: 80, Alerts: []string{}}
	quiet := activeProject("p2", "Quiet", intPtr(80), daysAgo(9))
	quiet.Result = scoring.Result{Score: 80, Alerts: []string{}}
	fresh := activeProject("p3", "Fresh", intPtr(80), daysAgo(2))
	fresh.Result = scoring.Result{Score: 80, Alerts: []string{}}

	got := GenerateAlerts([]scoring.ScoredProject{warn, quiet, fresh}, nil, nil, testNow)
	require.Len(t, got, 2)

	assert.Equal(t, model.LevelWarning, got[0].Level)
	assert.Contains(t, got[0].Message, "inactive for 20d")
	assert.NotEmpty(t, got[0].Action)
	assert.Equal(t, "inactive:p1", got[0].Fingerprint)

	assert.Equal(t, model.LevelInfo, got[1].Level)
	assert.Contains(t, got[1].Message, "quiet for 9d")
	assert.Empty(t, got[1].Action)
	assert.Equal(t, "inactive:p2", got[1].Fingerprint)
}

func TestGenerateAlerts_JournalEntryCountsAsActivity(t *testing.T) {
	sp := activeProject("p1", "Journaled", intPtr(80), daysAgo(20))
	sp.Result = scoring.Result{Score: 80, Alerts: []string{}}
	journal := map[string]time.Time{"p1": daysAgo(2)}

	got := GenerateAlerts([]scoring.ScoredProject{sp}, nil, journal, testNow)
	assert.Empty(t, got, "a recent journal entry resets the inactivity clock")
}

func TestGenerateAlerts_MilestoneOverdue(t *testing.T) {
	target1 := daysAgo(1)
	target15 := daysAgo(15)
	targetToday := testNow
	targetFuture := daysAgo(-5)

	ms := []model.MilestoneWithProject{
		{Milestone: model.Milestone{ID: "m1", Title: "Launch", Status: model.MilestoneInProgress, TargetDate: &target1}, ProjectName: "Site"},
		{Milestone: model.Milestone{ID: "m2", Title: "Beta", Status: model.MilestoneInProgress, TargetDate: &target15}, ProjectName: "Site"},
		{Milestone: model.Milestone{ID: "m3", Title: "Due today", Status: model.MilestoneInProgress, TargetDate: &targetToday}, ProjectName: "Site"},
		{Milestone: model.Milestone{ID: "m4", Title: "Future", Status: model.MilestoneNotStarted, TargetDate: &targetFuture}, ProjectName: "Site"},
		{Milestone: model.Milestone{ID: "m5", Title: "Done late", Status: model.MilestoneCompleted, TargetDate: &target15}, ProjectName: "Site"},
		{Milestone: model.Milestone{ID: "m6", Title: "No date", Status: model.MilestoneInProgress}, ProjectName: "Site"},
	}

	got := GenerateAlerts(nil, ms, nil, testNow)
	require.Len(t, got, 2)

	assert.Equal(t, model.LevelWarning, got[0].Level)
	assert.Equal(t, "milestone_overdue:m1", got[0].Fingerprint)
	assert.Equal(t, "milestone", got[0].RelatedType)

	assert.Equal(t, model.LevelCritical, got[1].Level)
	assert.Equal(t, "milestone_overdue:m2", got[1].Fingerprint)
	assert.Contains(t, got[1].Message, "15d past")
}

func TestGenerateAlerts_ScanScenario(t *testing.T) {
	// One stale project and one badly overdue milestone: exactly two alerts.
	stale := activeProject("p1", "Stale", intPtr(80), daysAgo(9))
	stale.Result = scoring.Result{Score: 80, Alerts: []string{}}
	target := daysAgo(20)
	ms := []model.MilestoneWithProject{
		{Milestone: model.Milestone{ID: "m1", Title: "Ship", Status: model.MilestoneInProgress, TargetDate: &target}, ProjectName: "Stale"},
	}

	got := GenerateAlerts([]scoring.ScoredProject{stale}, ms, nil, testNow)
	require.Len(t, got, 2)
	assert.Equal(t, model.CategoryProjectInactive, got[0].Category)
	assert.Equal(t, model.CategoryMilestoneOverdue, got[1].Category)
	assert.Equal(t, model.LevelCritical, got[1].Level)
}

func TestGenerateAlerts_Deterministic(t *testing.T) {
	sp := activeProject("p1", "Site", intPtr(80), daysAgo(20))
	sp.Result = scoring.Result{Score: 50, Status: scoring.StatusFair, Alerts: []string{"No live deployment"}}
	target := daysAgo(3)
	ms := []model.MilestoneWithProject{
		{Milestone: model.Milestone{ID: "m1", Title: "Ship", Status: model.MilestoneInProgress, TargetDate: &target}, ProjectName: "Site"},
	}

	a := GenerateAlerts([]scoring.ScoredProject{sp}, ms, nil, testNow)
	b := GenerateAlerts([]scoring.ScoredProject{sp}, ms, nil, testNow)
	assert.Equal(t, a, b)
}
