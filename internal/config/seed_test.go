package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
projects:
  - name: devdeck
    repo: acme/devdeck
    live_url: https://devdeck.example.com
    domain: devdeck.example.com
    priority: high
    milestones:
      - title: v1 launch
        target_date: 2026-10-01
        completion: 60
        status: in_progress
  - name: scratchpad
`

func TestLoadSeedBytes(t *testing.T) {
	doc, err := LoadSeedBytes([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, doc.Projects, 2)

	p := doc.Projects[0]
	assert.Equal(t, "devdeck", p.Name)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "high", p.Priority)
	require.Len(t, p.Milestones, 1)

	m := p.Milestones[0]
	target := m.ParsedTarget()
	require.NotNil(t, target)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *target)

	// Omitted fields pick up defaults.
	assert.Equal(t, "medium", doc.Projects[1].Priority)
	assert.Equal(t, "active", doc.Projects[1].Status)
}

func TestLoadSeedBytes_EnvExpansion(t *testing.T) {
	t.Setenv("SEED_REPO", "acme/secret")

	doc, err := LoadSeedBytes([]byte("projects:\n  - name: hidden\n    repo: ${SEED_REPO}\n"))
	require.NoError(t, err)
	assert.Equal(t, "acme/secret", doc.Projects[0].Repo)
}

func TestLoadSeedBytes_Invalid(t *testing.T) {
	_, err := LoadSeedBytes([]byte("projects:\n  - repo: acme/anon\n"))
	assert.Error(t, err, "nameless project rejected")

	_, err = LoadSeedBytes([]byte("projects:\n  - name: x\n    milestones:\n      - title: y\n        target_date: October 1\n"))
	assert.Error(t, err, "bad target date rejected")
}
