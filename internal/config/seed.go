package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedFileDoc is a YAML portfolio definition imported into an empty database
// on boot, so a fresh deployment starts with the user's projects.
type SeedFileDoc struct {
	Projects []SeedProject `yaml:"projects"`
}

// SeedProject describes one project plus its milestones.
type SeedProject struct {
	Name       string          `yaml:"name"`
	Status     string          `yaml:"status"`
	Priority   string          `yaml:"priority"`
	Repo       string          `yaml:"repo"`
	LiveURL    string          `yaml:"live_url"`
	Domain     string          `yaml:"domain"`
	Milestones []SeedMilestone `yaml:"milestones"`
}

// SeedMilestone describes one milestone. TargetDate uses YYYY-MM-DD.
type SeedMilestone struct {
	Title      string `yaml:"title"`
	TargetDate string `yaml:"target_date"`
	Completion int    `yaml:"completion"`
	Status     string `yaml:"status"`
}

// LoadSeedFile reads and parses a YAML seed file, expanding env vars.
func LoadSeedFile(path string) (*SeedFileDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return LoadSeedBytes(raw)
}

// LoadSeedBytes parses a YAML seed from bytes (useful for testing).
func LoadSeedBytes(data []byte) (*SeedFileDoc, error) {
	expanded := expandEnvVars(string(data))

	var doc SeedFileDoc
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	for i := range doc.Projects {
		p := &doc.Projects[i]
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("seed: project %d has no name", i)
		}
		if p.Status == "" {
			p.Status = "active"
		}
		if p.Priority == "" {
			p.Priority = "medium"
		}
		for j := range p.Milestones {
			m := &p.Milestones[j]
			if m.Status == "" {
				m.Status = "not_started"
			}
			if m.TargetDate != "" {
				if _, err := time.Parse("2006-01-02", m.TargetDate); err != nil {
					return nil, fmt.Errorf("seed: project %q milestone %q: bad target_date %q", p.Name, m.Title, m.TargetDate)
				}
			}
		}
	}
	return &doc, nil
}

// ParsedTarget returns the milestone target date, or nil if unset.
func (m SeedMilestone) ParsedTarget() *time.Time {
	if m.TargetDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", m.TargetDate)
	if err != nil {
		return nil
	}
	return &t
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the corresponding environment
// variable value. Missing vars are replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		return os.Getenv(name)
	})
}
