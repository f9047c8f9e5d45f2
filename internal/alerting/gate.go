package alerting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// AlertStore is the storage surface the gate needs: the fingerprints of all
// alerts not yet resolved, and bulk insertion of new candidates. Insertion
// is expected to be idempotent per open fingerprint (a uniqueness constraint
// over non-resolved rows), so racing scans degrade to skipped inserts rather
// than duplicate alerts.
type AlertStore interface {
	OpenFingerprints(ctx context.Context) ([]string, error)
	InsertCandidates(ctx context.Context, candidates []Candidate) (int, error)
}

// Gate deduplicates candidate alerts against the currently open set before
// persisting them. The invariant it maintains: at most one open alert per
// fingerprint at any time. Resolving an alert clears its fingerprint from
// the open set, allowing the same condition to alert again on a later scan.
type Gate struct {
	store  AlertStore
	logger zerolog.Logger
}

// NewGate creates a deduplication gate over the given store.
func NewGate(store AlertStore, logger zerolog.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: logger.With().Str("component", "alert_gate").Logger(),
	}
}

// Sync inserts the candidates whose fingerprint is not already open and
// returns them. Candidates sharing a fingerprint within the batch collapse
// to the first occurrence.
func (g *Gate) Sync(ctx context.Context, candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := g.store.OpenFingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading open fingerprints: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, fp := range existing {
		seen[fp] = true
	}

	novel := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Fingerprint] {
			continue
		}
		seen[c.Fingerprint] = true
		novel = append(novel, c)
	}

	if len(novel) == 0 {
		g.logger.Debug().Int("candidates", len(candidates)).Msg("all candidate alerts already open")
		return nil, nil
	}

	inserted, err := g.store.InsertCandidates(ctx, novel)
	if err != nil {
		return nil, fmt.Errorf("inserting alerts: %w", err)
	}
	if inserted < len(novel) {
		// A concurrent scan won the race on some fingerprints.
		g.logger.Warn().
			Int("novel", len(novel)).
			Int("inserted", inserted).
			Msg("some alerts were inserted by a concurrent scan")
	}

	g.logger.Info().
		Int("candidates", len(candidates)).
		Int("created", inserted).
		Msg("alert sync complete")
	return novel, nil
}
