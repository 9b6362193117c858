package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fitleague/fitleague/internal/app"
	"github.com/fitleague/fitleague/internal/auth"
	"github.com/fitleague/fitleague/internal/entries"
	"github.com/fitleague/fitleague/internal/leagues"
	"github.com/fitleague/fitleague/internal/observability"
	"github.com/fitleague/fitleague/internal/payments"
	"github.com/fitleague/fitleague/internal/platform/cache"
	"github.com/fitleague/fitleague/internal/platform/db"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
	"github.com/fitleague/fitleague/internal/teams"
	"github.com/fitleague/fitleague/internal/users"
	"github.com/fitleague/fitleague/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "fitleague_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	reviewRecorder := shared.NewReviewRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	membershipRepo := rbac.NewMembershipRepository(dbpool)
	resolver := rbac.NewResolver(membershipRepo)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}

	leaguesRepo := leagues.NewRepository(dbpool)
	leaguesService := leagues.NewService(leaguesRepo, auditLogger)
	leaguesHandler := leagues.NewHandler(logger, leaguesService, rbacMiddleware)

	teamsRepo := teams.NewRepository(dbpool)
	teamsService := teams.NewService(teamsRepo, auditLogger)
	teamsHandler := teams.NewHandler(logger, teamsService, rbacMiddleware)

	summaryCache := entries.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	entriesRepo := entries.NewRepository(dbpool)
	entriesService := entries.NewService(entriesRepo, leaguesService, teamsService, usersService, reviewRecorder, auditLogger, summaryCache, shared.UTCClock)
	entriesHandler := entries.NewHandler(logger, entriesService, rbacMiddleware)

	gateway := payments.NewProvider(cfg.GatewaySecretKey, cfg.GatewayWebhookSecret, cfg.GatewayBaseURL, http.DefaultClient, shared.UTCClock)
	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(logger, paymentsRepo, gateway, idempotencyStore, shared.UTCClock, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	paymentsHandler := payments.NewHandler(logger, paymentsService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		LeaguesHandler:  leaguesHandler,
		TeamsHandler:    teamsHandler,
		EntriesHandler:  entriesHandler,
		PaymentsHandler: paymentsHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
