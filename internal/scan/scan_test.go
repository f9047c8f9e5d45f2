package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdeck/devdeck/internal/alerting"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/store"
)

type fakeSnapshotter struct {
	snapshot *model.ActivitySnapshot
	commits  []model.CommitSummary
}

func (f *fakeSnapshotter) FetchSnapshot(context.Context, string) *model.ActivitySnapshot {
	return f.snapshot
}

func (f *fakeSnapshotter) RecentCommits(_ context.Context, projectID, projectName, _ string, _ int) []model.CommitSummary {
	out := make([]model.CommitSummary, len(f.commits))
	for i, c := range f.commits {
		c.ProjectID = projectID
		c.ProjectName = projectName
		out[i] = c
	}
	return out
}

type fakeNotifier struct {
	batches [][]alerting.Candidate
}

func (f *fakeNotifier) NotifyNewAlerts(_ context.Context, created []alerting.Candidate) {
	f.batches = append(f.batches, created)
}

func setupScanStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_FailingDeploymentCreatesAlertOnce(t *testing.T) {
	s := setupScanStore(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := s.CreateProject(ctx, store.CreateProjectInput{
		Name: "demo", Repo: "acme/demo", LiveURL: srv.URL,
	})
	require.NoError(t, err)

	staleCommit := time.Now().UTC().Add(-40 * 24 * time.Hour)
	issues := 2
	gh := &fakeSnapshotter{snapshot: &model.ActivitySnapshot{
		LastCommit: &staleCommit,
		OpenIssues: &issues,
		CI:         model.CIFailure,
		Activity:   model.ActivityFrozen,
	}}
	notifier := &fakeNotifier{}

	o := New(s, gh, notifier, nil, DefaultOptions(), zerolog.Nop())

	sum, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Projects)
	require.Equal(t, 1, sum.AlertsCreated)

	alerts, err := s.ListAlerts(ctx, "active")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.CategoryDeployFailed, alerts[0].Category)
	assert.Equal(t, model.LevelCritical, alerts[0].Level)

	// The critical alert reached the notifier.
	require.Len(t, notifier.batches, 1)
	require.Len(t, notifier.batches[0], 1)
	assert.Equal(t, model.CategoryDeployFailed, notifier.batches[0][0].Category)

	// Score written back after rule evaluation.
	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HealthScore)

	// Re-scan with the condition still present: the open fingerprint blocks a
	// duplicate alert.
	sum, err = o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.AlertsCreated)

	alerts, err = s.ListAlerts(ctx, "active")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestRun_HealthyProjectNoAlerts(t *testing.T) {
	s := setupScanStore(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := s.CreateProject(ctx, store.CreateProjectInput{
		Name: "demo", Repo: "acme/demo", LiveURL: srv.URL, Domain: "demo.dev",
	})
	require.NoError(t, err)

	recent := time.Now().UTC().Add(-2 * time.Hour)
	issues := 0
	gh := &fakeSnapshotter{
		snapshot: &model.ActivitySnapshot{
			LastCommit: &recent,
			OpenIssues: &issues,
			CI:         model.CISuccess,
			Activity:   model.ActivityHot,
		},
		commits: []model.CommitSummary{{Message: "ship it", CommittedAt: recent}},
	}

	o := New(s, gh, nil, nil, DefaultOptions(), zerolog.Nop())
	sum, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.AlertsCreated)

	scored, commits, _, ok := o.Latest()
	require.True(t, ok)
	require.Len(t, scored, 1)
	assert.GreaterOrEqual(t, scored[0].Result.Score, 85)
	assert.Equal(t, "ok", scored[0].DeployState)
	require.Len(t, commits, 1)
	assert.Equal(t, "demo", commits[0].ProjectName)
}

func TestRun_NoGitHubClient(t *testing.T) {
	s := setupScanStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, store.CreateProjectInput{Name: "notes"})
	require.NoError(t, err)

	o := New(s, nil, nil, nil, Options{DeployProbe: false}, zerolog.Nop())
	sum, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Projects)
}

func TestLatest_EmptyBeforeFirstScan(t *testing.T) {
	s := setupScanStore(t)
	o := New(s, nil, nil, nil, DefaultOptions(), zerolog.Nop())
	_, _, _, ok := o.Latest()
	assert.False(t, ok)
}
