// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"maika/internal/collector"
	"maika/internal/config"
	"maika/internal/core"
	"maika/internal/discord"
	"maika/internal/dispatch"
	"maika/internal/finder"
	"maika/internal/logging"
	"maika/internal/metrics"
	"maika/internal/plugins"
	"maika/internal/storage/backend"
	v "maika/internal/version"
	"maika/pkg/jobmgr"
)

const (
	finderTTL     = 5 * time.Minute
	drainDeadline = 10 * time.Second
	metricsJob    = "metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger().Fatal().Err(err).Msg("invalid configuration")
	}
	if err := cfg.RequireToken(); err != nil {
		bootLogger().Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	logger.Info().Str("version", v.Version).Str("go", v.GoVersion).Msgf("starting %s bot", v.AppName)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot exited with error")
	}
	logger.Info().Msg("discord bot exited cleanly")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(cfg.StorageDriver, cfg.StoragePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	manifest, err := plugins.Load(cfg.PluginsFile)
	if err != nil {
		return err
	}
	registry := core.NewRegistry(logger.With().Str("component", "registry").Logger())
	if err := registry.Load(manifest.Sources()); err != nil {
		return err
	}
	logger.Info().Int("plugins", registry.Count()).Msg("plugins loaded")

	jobs := jobmgr.NewManager(jobReporter(logger.With().Str("component", "jobs").Logger()))

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		err := jobs.StartAsync(metricsJob, func(jobCtx context.Context) error {
			return metrics.Serve(jobCtx, cfg.MetricsAddr, prometheus.DefaultGatherer, logger)
		})
		if err != nil {
			return err
		}
	}

	col := collector.New(collector.WithObserver(m.CollectorObserver()))

	bot, err := discord.New(cfg, logger)
	if err != nil {
		return err
	}

	svc := &core.Services{
		Gateway:   bot,
		Store:     store,
		Finder:    finder.New(bot, finderTTL),
		Collector: col,
		Registry:  registry,
		Jobs:      jobs,
		Owners:    core.NewOwnerSet(cfg.OwnerIDs),
		Config:    cfg,
		StartedAt: time.Now(),
		Logger:    logger,
	}
	disp := dispatch.New(svc, m, logger)

	runErr := bot.Run(ctx, col, disp)

	if cfg.MetricsAddr != "" {
		if err := jobs.Stop(metricsJob); err != nil {
			logger.Debug().Err(err).Msg("metrics server already stopped")
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainDeadline)
	defer cancel()
	if err := jobs.Wait(drainCtx); err != nil {
		logger.Warn().Err(err).Strs("jobs", jobs.List()).Msg("background jobs still running at exit")
	}
	return runErr
}

// jobReporter logs job lifecycle events; failures are raised to warn.
func jobReporter(logger zerolog.Logger) jobmgr.StatusReporter {
	return func(s string) {
		if strings.HasPrefix(s, "error:") {
			logger.Warn().Msg(s)
			return
		}
		logger.Debug().Msg(s)
	}
}

// bootLogger is used before configuration is known.
func bootLogger() *zerolog.Logger {
	l := logging.New(logging.Options{})
	return &l
}
