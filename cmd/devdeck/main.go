package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devdeck/devdeck/internal/config"
	ghclient "github.com/devdeck/devdeck/internal/github"
	"github.com/devdeck/devdeck/internal/health"
	"github.com/devdeck/devdeck/internal/metrics"
	"github.com/devdeck/devdeck/internal/notify"
	"github.com/devdeck/devdeck/internal/scan"
	"github.com/devdeck/devdeck/internal/sched"
	"github.com/devdeck/devdeck/internal/server"
	"github.com/devdeck/devdeck/internal/store"
	"github.com/devdeck/devdeck/pkg/tokencache"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("github_enabled", cfg.GitHubEnabled()).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Bool("scheduler_enabled", cfg.SchedulerEnabled()).
		Msg("starting devdeck")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	if cfg.SeedFile != "" {
		if err := importSeed(ctx, cfg.SeedFile, st, logger); err != nil {
			logger.Fatal().Err(err).Str("seed_file", cfg.SeedFile).Msg("seed import failed")
		}
	}

	checker := health.NewChecker(logger)
	checker.Register("store", func(ctx context.Context) health.Status {
		if err := st.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// GitHub client (optional). App credentials win over a PAT.
	var ghClient *ghclient.Client
	if cfg.GitHubAppEnabled() {
		ghClient, err = ghclient.NewAppClient(
			cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKeyPath,
			tokencache.NewMemory(), logger,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to init GitHub App client (non-fatal)")
			ghClient = nil
		} else {
			logger.Info().Msg("GitHub App client initialized")
		}
	} else if cfg.GitHubToken != "" {
		ghClient = ghclient.NewClient(cfg.GitHubToken, logger)
		logger.Info().Msg("GitHub token client initialized")
	} else {
		logger.Info().Msg("GitHub not configured, scans run without activity snapshots")
	}
	if ghClient != nil {
		checker.Register("github", func(ctx context.Context) health.Status {
			if err := ghClient.Ping(ctx); err != nil {
				return health.StatusDegraded
			}
			return health.StatusOK
		})
	}

	var notifier scan.Notifier
	if cfg.SlackEnabled() {
		notifier = notify.New(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
		logger.Info().Str("channel", cfg.SlackAlertChannel).Msg("Slack notifier initialized")
	}

	m := metrics.New()

	var snapshotter scan.Snapshotter
	if ghClient != nil {
		snapshotter = ghClient
	}
	orch := scan.New(st, snapshotter, notifier, m, scan.Options{
		Concurrency:        5,
		RecentCommits:      cfg.RecentCommits,
		DeployProbe:        cfg.DeployProbe,
		DeployProbeTimeout: cfg.DeployProbeTimeout,
	}, logger)

	srv := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		Auth:        server.AuthConfig{Mode: cfg.AuthMode, APIKey: cfg.APIKey},
		CORSOrigins: cfg.CORSOrigins,
	}, st, orch, checker, m, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	if cfg.SchedulerEnabled() {
		scheduler := sched.New(orch, cfg.ScanInterval, cfg.ScanTimeout, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(ctx)
		}()
	}

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	wg.Wait()
	logger.Info().Msg("devdeck stopped")
}

// importSeed loads the YAML portfolio into an empty database. A database that
// already holds projects is left untouched, so the seed only applies to a
// fresh deployment.
func importSeed(ctx context.Context, path string, st *store.Store, logger zerolog.Logger) error {
	existing, err := st.ListProjects(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("projects", len(existing)).Msg("database not empty, skipping seed import")
		return nil
	}

	doc, err := config.LoadSeedFile(path)
	if err != nil {
		return err
	}

	for _, sp := range doc.Projects {
		p, err := st.CreateProject(ctx, store.CreateProjectInput{
			Name:     sp.Name,
			Status:   sp.Status,
			Priority: sp.Priority,
			Repo:     sp.Repo,
			LiveURL:  sp.LiveURL,
			Domain:   sp.Domain,
		})
		if err != nil {
			return err
		}
		for _, sm := range sp.Milestones {
			if _, err := st.CreateMilestone(ctx, p.ID, store.CreateMilestoneInput{
				Title:      sm.Title,
				TargetDate: sm.ParsedTarget(),
				Completion: sm.Completion,
				Status:     sm.Status,
			}); err != nil {
				return err
			}
		}
	}

	logger.Info().Int("projects", len(doc.Projects)).Str("seed_file", path).Msg("seed import complete")
	return nil
}
