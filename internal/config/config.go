package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Storage
	DBPath   string `envconfig:"DB_PATH" default:"devdeck.db"`
	SeedFile string `envconfig:"SEED_FILE"` // optional YAML portfolio import on boot

	// GitHub — PAT mode (personal deployments)
	GitHubToken string `envconfig:"GITHUB_TOKEN"`

	// GitHub — App mode (takes precedence over the PAT when configured)
	GitHubAppID          int64  `envconfig:"GITHUB_APP_ID"`
	GitHubInstallationID int64  `envconfig:"GITHUB_INSTALLATION_ID"`
	GitHubPrivateKeyPath string `envconfig:"GITHUB_PRIVATE_KEY_PATH"`

	// Scanning
	ScanInterval      time.Duration `envconfig:"SCAN_INTERVAL" default:"0"` // 0 disables the scheduler
	ScanTimeout       time.Duration `envconfig:"SCAN_TIMEOUT" default:"2m"`
	RecentCommits     int           `envconfig:"RECENT_COMMITS" default:"10"` // per-repo commits fed to insights
	DeployProbe       bool          `envconfig:"DEPLOY_PROBE" default:"true"`
	DeployProbeTimeout time.Duration `envconfig:"DEPLOY_PROBE_TIMEOUT" default:"5s"`

	// API auth
	AuthMode string `envconfig:"AUTH_MODE" default:"api-key"` // "api-key" or "none"
	APIKey   string `envconfig:"API_KEY"`

	// CORS
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// Slack notifications (optional)
	SlackBotToken     string `envconfig:"SLACK_BOT_TOKEN"`
	SlackAlertChannel string `envconfig:"SLACK_ALERT_CHANNEL"`
}

// GitHubEnabled returns true if any GitHub credential is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubToken != "" || c.GitHubAppEnabled()
}

// GitHubAppEnabled returns true if GitHub App credentials are configured.
func (c *Config) GitHubAppEnabled() bool {
	return c.GitHubAppID > 0 && c.GitHubInstallationID > 0 && c.GitHubPrivateKeyPath != ""
}

// SlackEnabled returns true if Slack notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAlertChannel != ""
}

// SchedulerEnabled returns true if periodic scanning is configured.
func (c *Config) SchedulerEnabled() bool {
	return c.ScanInterval > 0
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix (used by tests).
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	return &cfg, nil
}
