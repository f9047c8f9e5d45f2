package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdeck/devdeck/internal/health"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/scan"
	"github.com/devdeck/devdeck/internal/scoring"
	"github.com/devdeck/devdeck/internal/store"
)

type fakeScanner struct {
	summary *scan.Summary
	scored  []scoring.ScoredProject
	commits []model.CommitSummary
	at      time.Time
}

func (f *fakeScanner) Run(context.Context) (*scan.Summary, error) {
	return f.summary, nil
}

func (f *fakeScanner) Latest() ([]scoring.ScoredProject, []model.CommitSummary, time.Time, bool) {
	return f.scored, f.commits, f.at, !f.at.IsZero()
}

func testApp(t *testing.T, authMode, apiKey string, scanner Scanner) (*fiber.App, *store.Store) {
	t.Helper()
	logger := zerolog.Nop()

	st, err := store.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	checker := health.NewChecker(logger)
	checker.Register("store", func(ctx context.Context) health.Status {
		if err := st.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	srv := New(Config{
		ListenAddr: ":0",
		Auth:       AuthConfig{Mode: authMode, APIKey: apiKey},
	}, st, scanner, checker, nil, logger)

	return srv.App(), st
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestServer_Probes(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)

	resp := doJSON(t, app, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_AuthRequired(t *testing.T) {
	app, _ := testApp(t, "api-key", "sekrit", nil)

	// Probes stay open.
	resp := doJSON(t, app, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects", "", map[string]string{"Authorization": "sekrit"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects", "", map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ProjectCRUD(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)

	resp := doJSON(t, app, "POST", "/api/v1/projects", `{"name":"demo","repo":"acme/demo"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.ProjectActive, p.Status)

	resp = doJSON(t, app, "GET", "/api/v1/projects/"+p.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "PATCH", "/api/v1/projects/"+p.ID, `{"status":"paused"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, model.ProjectPaused, p.Status)

	resp = doJSON(t, app, "DELETE", "/api/v1/projects/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CreateProjectValidation(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)
	resp := doJSON(t, app, "POST", "/api/v1/projects", `{"repo":"acme/demo"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_MilestoneUnderMissingProject(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)
	resp := doJSON(t, app, "POST", "/api/v1/projects/nope/milestones", `{"title":"v1"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_JournalFlow(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)

	resp := doJSON(t, app, "POST", "/api/v1/projects", `{"name":"demo"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))

	resp = doJSON(t, app, "POST", "/api/v1/projects/"+p.ID+"/journal", `{"content":"shipped the parser"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects/"+p.ID+"/journal", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Entries []model.JournalEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "shipped the parser", body.Entries[0].Content)
}

func TestServer_AlertsBadFilter(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)
	resp := doJSON(t, app, "GET", "/api/v1/alerts?filter=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_AlertStatusRequiresIDs(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)
	resp := doJSON(t, app, "PATCH", "/api/v1/alerts/status", `{"ids":[],"status":"read"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_TriggerScan(t *testing.T) {
	scanner := &fakeScanner{summary: &scan.Summary{Projects: 3, AlertsCreated: 1, ScannedAt: time.Now().UTC()}}
	app, _ := testApp(t, "none", "", scanner)

	resp := doJSON(t, app, "POST", "/api/v1/scan", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum scan.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	assert.Equal(t, 3, sum.Projects)
	assert.Equal(t, 1, sum.AlertsCreated)
}

func TestServer_ScanUnavailable(t *testing.T) {
	app, _ := testApp(t, "none", "", nil)
	resp := doJSON(t, app, "POST", "/api/v1/scan", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_InsightsBeforeFirstScan(t *testing.T) {
	app, _ := testApp(t, "none", "", &fakeScanner{})

	resp := doJSON(t, app, "GET", "/api/v1/insights", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Insights []model.Insight `json:"insights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Insights)
}

func TestServer_InsightsFromLatestScan(t *testing.T) {
	staleCommit := time.Now().UTC().Add(-20 * 24 * time.Hour)
	scanner := &fakeScanner{
		at: time.Now().UTC(),
		scored: []scoring.ScoredProject{{
			Project: model.Project{
				ID: "p1", Name: "old-thing", Status: model.ProjectActive,
				Priority: model.PriorityMedium, UpdatedAt: staleCommit,
			},
			Snapshot: &model.ActivitySnapshot{LastCommit: &staleCommit},
			Result:   scoring.Result{Score: 55, Status: scoring.StatusFair},
		}},
	}
	app, _ := testApp(t, "none", "", scanner)

	resp := doJSON(t, app, "GET", "/api/v1/insights", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Insights []model.Insight `json:"insights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Insights)
	assert.Equal(t, model.InsightStale, body.Insights[0].Type)
}
