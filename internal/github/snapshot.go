package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v60/github"

	derrors "github.com/devdeck/devdeck/internal/errors"
	"github.com/devdeck/devdeck/internal/model"
	"github.com/devdeck/devdeck/internal/retry"
)

// FetchSnapshot returns a point-in-time summary of the repository, or nil
// when nothing could be retrieved. Partial data is normal: each field is
// fetched independently and missing pieces stay nil/unknown.
func (c *Client) FetchSnapshot(ctx context.Context, repo string) *model.ActivitySnapshot {
	owner, name, err := splitRepo(repo)
	if err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("invalid repository reference")
		return nil
	}

	api, err := c.api(ctx)
	if err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("github auth failed")
		return nil
	}

	snap := &model.ActivitySnapshot{CI: model.CIUnknown, Activity: model.ActivityUnknown}
	got := false

	if t, err := c.lastCommit(ctx, api, owner, name); err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("commit fetch failed")
	} else if t != nil {
		snap.LastCommit = t
		got = true
	}

	if n, err := c.openIssues(ctx, api, owner, name); err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("issue count fetch failed")
	} else {
		snap.OpenIssues = n
		got = true
	}

	if ci, err := c.ciConclusion(ctx, api, owner, name); err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("workflow run fetch failed")
	} else {
		snap.CI = ci
		got = true
	}

	if !got {
		return nil
	}
	snap.Activity = ActivityFor(snap.LastCommit, time.Now().UTC())
	return snap
}

// RecentCommits lists the newest commits of the repository attributed to the
// given project, for the insight generator. Returns nil on failure.
func (c *Client) RecentCommits(ctx context.Context, projectID, projectName, repo string, limit int) []model.CommitSummary {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil
	}
	api, err := c.api(ctx)
	if err != nil {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	var commits []*gogithub.RepositoryCommit
	err = retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var ghErr error
		commits, _, ghErr = api.Repositories.ListCommits(ctx, owner, name, &gogithub.CommitsListOptions{
			ListOptions: gogithub.ListOptions{PerPage: limit},
		})
		return wrapErr(ghErr)
	})
	if err != nil {
		c.logger.Warn().Str("repo", repo).Err(err).Msg("commit list fetch failed")
		return nil
	}

	out := make([]model.CommitSummary, 0, len(commits))
	for _, rc := range commits {
		when := rc.GetCommit().GetAuthor().GetDate().Time
		if when.IsZero() {
			continue
		}
		out = append(out, model.CommitSummary{
			ProjectID:   projectID,
			ProjectName: projectName,
			Message:     firstLine(rc.GetCommit().GetMessage()),
			CommittedAt: when.UTC(),
		})
	}
	return out
}

// ActivityFor buckets commit recency into the coarse activity label.
func ActivityFor(lastCommit *time.Time, now time.Time) model.ActivityLabel {
	if lastCommit == nil {
		return model.ActivityUnknown
	}
	switch days := int(now.Sub(*lastCommit).Hours() / 24); {
	case days <= 2:
		return model.ActivityHot
	case days <= 7:
		return model.ActivityWarm
	case days <= 30:
		return model.ActivityCold
	default:
		return model.ActivityFrozen
	}
}

func (c *Client) lastCommit(ctx context.Context, api *gogithub.Client, owner, name string) (*time.Time, error) {
	var commits []*gogithub.RepositoryCommit
	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var ghErr error
		commits, _, ghErr = api.Repositories.ListCommits(ctx, owner, name, &gogithub.CommitsListOptions{
			ListOptions: gogithub.ListOptions{PerPage: 1},
		})
		return wrapErr(ghErr)
	})
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	when := commits[0].GetCommit().GetAuthor().GetDate().Time
	if when.IsZero() {
		return nil, nil
	}
	utc := when.UTC()
	return &utc, nil
}

func (c *Client) openIssues(ctx context.Context, api *gogithub.Client, owner, name string) (*int, error) {
	var repo *gogithub.Repository
	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var ghErr error
		repo, _, ghErr = api.Repositories.Get(ctx, owner, name)
		return wrapErr(ghErr)
	})
	if err != nil {
		return nil, err
	}
	n := repo.GetOpenIssuesCount()
	return &n, nil
}

func (c *Client) ciConclusion(ctx context.Context, api *gogithub.Client, owner, name string) (model.CIState, error) {
	var runs *gogithub.WorkflowRuns
	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var ghErr error
		runs, _, ghErr = api.Actions.ListRepositoryWorkflowRuns(ctx, owner, name, &gogithub.ListWorkflowRunsOptions{
			Status:      "completed",
			ListOptions: gogithub.ListOptions{PerPage: 1},
		})
		return wrapErr(ghErr)
	})
	if err != nil {
		return model.CIUnknown, err
	}
	if runs == nil || len(runs.WorkflowRuns) == 0 {
		return model.CIUnknown, nil
	}
	switch runs.WorkflowRuns[0].GetConclusion() {
	case "success":
		return model.CISuccess, nil
	case "failure", "timed_out", "startup_failure":
		return model.CIFailure, nil
	default:
		return model.CIUnknown, nil
	}
}

// splitRepo parses an "owner/name" reference.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository reference %q is not owner/name", repo)
	}
	return parts[0], parts[1], nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// wrapErr converts go-github error responses into APIError so the retry
// helper can classify them.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return derrors.NewAPIError("github", ghErr.Response.StatusCode, ghErr.Message)
	}
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return derrors.ErrRateLimit
	}
	return err
}
