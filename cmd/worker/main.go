package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fitleague/fitleague/internal/app"
	"github.com/fitleague/fitleague/internal/entries"
	jobmetrics "github.com/fitleague/fitleague/internal/jobs"
	"github.com/fitleague/fitleague/internal/leagues"
	"github.com/fitleague/fitleague/internal/platform/cache"
	"github.com/fitleague/fitleague/internal/platform/db"
	"github.com/fitleague/fitleague/internal/shared"
	"github.com/fitleague/fitleague/internal/teams"
	"github.com/fitleague/fitleague/internal/users"
	"github.com/fitleague/fitleague/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	reviewRecorder := shared.NewReviewRecorder(pool, logger)

	usersService := users.NewService(users.NewRepository(pool))
	leaguesService := leagues.NewService(leagues.NewRepository(pool), auditLogger)
	teamsService := teams.NewService(teams.NewRepository(pool), auditLogger)

	summaryCache := entries.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	entriesService := entries.NewService(entries.NewRepository(pool), leaguesService, teamsService, usersService, reviewRecorder, auditLogger, summaryCache, shared.UTCClock)

	metrics := jobmetrics.NewMetrics(nil)
	sweepHandler := jobs.NewEntriesSweepHandler(entriesService, logger, metrics)

	sweepTask, err := jobs.NewEntriesAutoApproveTask(cfg.SweepCutoffHours, time.Now().UTC())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEntriesAutoApprove, Handler: sweepHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepCronSpec, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
