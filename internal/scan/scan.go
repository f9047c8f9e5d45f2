// Package scan orchestrates a full health scan: gather GitHub snapshots,
// probe deployments, score every project, run the alert rules through the
// dedup gate, and persist the fresh scores.
package scan

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/devdeck/devdeck/internal/alerting"
	"github.com/devdeck/devdeck/internal/metrics"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/scoring"
	"github.com/devdeck/devdeck/internal/store"
)

// Snapshotter supplies GitHub activity data. Nil snapshots and empty commit
// lists are expected results, not failures.
type Snapshotter interface {
	FetchSnapshot(ctx context.Context, repo string) *model.ActivitySnapshot
	RecentCommits(ctx context.Context, projectID, projectName, repo string, limit int) []model.CommitSummary
}

// Notifier receives the alerts a scan actually created.
type Notifier interface {
	NotifyNewAlerts(ctx context.Context, created []alerting.Candidate)
}

// Options tune a single scan.
type Options struct {
	Concurrency        int
	RecentCommits      int
	DeployProbe        bool
	DeployProbeTimeout time.Duration
}

// DefaultOptions returns the standard scan tuning.
func DefaultOptions() Options {
	return Options{
		Concurrency:        5,
		RecentCommits:      10,
		DeployProbe:        true,
		DeployProbeTimeout: 5 * time.Second,
	}
}

// Summary is the result of one scan.
type Summary struct {
	Projects      int       `json:"projects"`
	AlertsCreated int       `json:"created"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// Orchestrator runs scans and retains the most recent scan's scored projects
// for the insight endpoint.
type Orchestrator struct {
	store    *store.Store
	gh       Snapshotter // nil when GitHub is not configured
	gate     *alerting.Gate
	notifier Notifier // nil when Slack is not configured
	metrics  *metrics.Metrics
	probe    *http.Client
	opts     Options
	logger   zerolog.Logger

	mu         sync.RWMutex
	lastScored []scoring.ScoredProject
	lastCommit []model.CommitSummary
	lastScan   time.Time
}

// New creates a scan orchestrator. gh and notifier may be nil.
func New(st *store.Store, gh Snapshotter, notifier Notifier, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.DeployProbeTimeout <= 0 {
		opts.DeployProbeTimeout = 5 * time.Second
	}
	return &Orchestrator{
		store:    st,
		gh:       gh,
		gate:     alerting.NewGate(st, logger),
		notifier: notifier,
		metrics:  m,
		probe: &http.Client{
			Timeout: opts.DeployProbeTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		opts:   opts,
		logger: logger.With().Str("component", "scan").Logger(),
	}
}

// gathered is the per-project fetch result before scoring.
type gathered struct {
	project     model.Project
	snapshot    *model.ActivitySnapshot
	deployState string
	commits     []model.CommitSummary
}

// Run performs one full scan. The stored health scores are read for baseline
// comparison during rule evaluation and only overwritten afterwards, so a
// degradation is detected exactly once.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	now := started.UTC()

	projects, err := o.store.ListProjects(ctx, "")
	if err != nil {
		o.recordScan("error", started)
		return nil, err
	}
	milestones, err := o.store.ListMilestonesWithProject(ctx)
	if err != nil {
		o.recordScan("error", started)
		return nil, err
	}
	journal, err := o.store.LatestJournalTimes(ctx)
	if err != nil {
		o.recordScan("error", started)
		return nil, err
	}

	results := o.gather(ctx, projects)

	scored := make([]scoring.ScoredProject, 0, len(results))
	commits := make([]model.CommitSummary, 0)
	scores := make(map[string]int, len(results))
	for _, g := range results {
		res := scoring.Score(g.project, g.snapshot, now)
		scored = append(scored, scoring.ScoredProject{
			Project:     g.project,
			Snapshot:    g.snapshot,
			Result:      res,
			DeployState: g.deployState,
		})
		scores[g.project.ID] = res.Score
		commits = append(commits, g.commits...)
	}

	candidates := alerting.GenerateAlerts(scored, milestones, journal, now)
	created, err := o.gate.Sync(ctx, candidates)
	if err != nil {
		o.recordScan("error", started)
		return nil, err
	}

	if err := o.store.SaveHealthScores(ctx, scores); err != nil {
		o.recordScan("error", started)
		return nil, err
	}

	if o.metrics != nil {
		for _, c := range created {
			o.metrics.RecordAlert(string(c.Category), string(c.Level))
		}
		o.metrics.ProjectsScanned.Set(float64(len(scored)))
	}
	if o.notifier != nil {
		o.notifier.NotifyNewAlerts(ctx, created)
	}

	o.mu.Lock()
	o.lastScored = scored
	o.lastCommit = commits
	o.lastScan = now
	o.mu.Unlock()

	o.recordScan("ok", started)
	o.logger.Info().
		Int("projects", len(scored)).
		Int("candidates", len(candidates)).
		Int("created", len(created)).
		Dur("took", time.Since(started)).
		Msg("scan complete")

	return &Summary{Projects: len(scored), AlertsCreated: len(created), ScannedAt: now}, nil
}

// Latest returns the most recent scan's scored projects and commits, for the
// insight generator. ok is false before the first scan completes.
func (o *Orchestrator) Latest() (scored []scoring.ScoredProject, commits []model.CommitSummary, at time.Time, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastScored, o.lastCommit, o.lastScan, !o.lastScan.IsZero()
}

// gather fans out per-project data collection across a bounded worker pool.
// Per-project failures degrade to missing data and never abort the scan.
func (o *Orchestrator) gather(ctx context.Context, projects []model.Project) []gathered {
	out := make([]gathered, len(projects))
	sem := make(chan struct{}, o.opts.Concurrency)
	var wg sync.WaitGroup

	for i, p := range projects {
		wg.Add(1)
		go func(i int, p model.Project) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			g := gathered{project: p}
			if o.gh != nil && p.Repo != "" {
				g.snapshot = o.gh.FetchSnapshot(ctx, p.Repo)
				if g.snapshot == nil && o.metrics != nil {
					o.metrics.SnapshotFailures.Inc()
				}
				g.commits = o.gh.RecentCommits(ctx, p.ID, p.Name, p.Repo, o.opts.RecentCommits)
			}
			if o.opts.DeployProbe && p.Status == model.ProjectActive && p.LiveURL != "" {
				g.deployState = o.probeDeploy(ctx, p.LiveURL)
			}
			out[i] = g
		}(i, p)
	}

	wg.Wait()
	return out
}

// probeDeploy checks whether the live URL responds. Anything below 500 counts
// as alive; auth walls and redirects are fine, server errors are not.
func (o *Orchestrator) probeDeploy(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		o.logger.Warn().Str("url", url).Err(err).Msg("invalid live URL")
		return alerting.DeployFailed
	}
	resp, err := o.probe.Do(req)
	if err != nil {
		o.logger.Warn().Str("url", url).Err(err).Msg("deploy probe failed")
		return alerting.DeployFailed
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return alerting.DeployFailed
	}
	return "ok"
}

func (o *Orchestrator) recordScan(status string, started time.Time) {
	if o.metrics != nil {
		o.metrics.RecordScan(status, time.Since(started).Seconds())
	}
}
