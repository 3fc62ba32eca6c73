package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/stridestats/stridestats/internal/activity"
	"github.com/stridestats/stridestats/internal/api"
	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/auth"
	"github.com/stridestats/stridestats/internal/cloudsql"
	"github.com/stridestats/stridestats/internal/config"
	"github.com/stridestats/stridestats/internal/database"
	"github.com/stridestats/stridestats/internal/jobs"
	"github.com/stridestats/stridestats/internal/logging"
	"github.com/stridestats/stridestats/internal/metrics"
	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/server"
	"github.com/stridestats/stridestats/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting stridestats", "storage_mode", cfg.Storage.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage wiring depends on the mode: postgres keeps artifacts, tokens and
	// refresh records in the database; filesystem keeps everything on disk and
	// retains raw activity logs between refreshes.
	var (
		db        *sql.DB
		store     artifacts.Store
		refreshes jobs.RefreshRepository
		tokens    activity.TokenStore
	)

	switch cfg.Storage.Mode {
	case config.StorageModePostgres:
		dbURL, err := cloudsql.BuildDatabaseURL()
		if err != nil {
			logger.Error("failed to build database URL", "error", err)
			os.Exit(1)
		}
		logger.Info("database configuration", "config", cloudsql.GetConnectionConfig())

		dbConfig := database.DefaultConfig()
		dbConfig.URL = dbURL

		logger.Info("connecting to database")
		db, err = database.Connect(ctx, dbConfig)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		store = database.NewPostgresArtifactRepository(db)
		refreshes = database.NewPostgresRefreshRepository(db, cfg.Refresh.RecordHorizon)
		tokens = database.NewPostgresTokenRepository(db)

	case config.StorageModeFilesystem:
		store = artifacts.NewFSStore(cfg.Storage.ArtifactDir)
		refreshes = jobs.NewMemoryRefreshRepository(cfg.Refresh.RecordHorizon)
		tokens = activity.NewFileTokenStore(cfg.Storage.DataDir)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Upstream provider plumbing
	oauth := activity.NewOAuthClient(nil, cfg.Provider.ClientID, cfg.Provider.ClientSecret)
	tokenManager := activity.NewTokenManager(tokens, oauth)
	source := activity.NewStravaSource(nil, tokenManager)

	activityLog := activity.NewLog(cfg.Storage.DataDir)
	fetcher := activity.NewFetcher(source, activityLog, logger)

	builder := artifacts.NewBuilder(
		artifacts.Registry(),
		store,
		func(athleteID int64, tier models.Tier) (stats.Stream, error) {
			return activityLog.Stream(athleteID, tier)
		},
		logger,
		collector,
	)

	pipeline := jobs.NewPipeline(jobs.PipelineConfig{
		Policy: jobs.Policy{
			SummaryMinPeriod:  cfg.Refresh.SummaryMinPeriod,
			DetailedMinPeriod: cfg.Refresh.DetailedMinPeriod,
		},
		Refreshes:       refreshes,
		Fetcher:         fetcher,
		Log:             activityLog,
		Builder:         builder,
		Store:           store,
		PurgeOnRefresh:  cfg.Storage.Mode == config.StorageModePostgres,
		KeepActivityLog: cfg.Storage.Mode == config.StorageModeFilesystem,
		Workers:         cfg.Refresh.Workers,
		SupportContact:  os.Getenv("SUPPORT_CONTACT"),
		Logger:          logger,
		Metrics:         collector,
	})
	pipeline.Start(ctx)

	authConfig := auth.Config{
		JWTSecret:         cfg.Auth.JWTSecret,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		SessionTTL:        cfg.Auth.SessionTTL,
	}
	if authConfig.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, sessions will not survive restarts")
		authConfig.JWTSecret = "change-this-secret"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	api.SetupRoutes(mux, db, pipeline, store, activityLog, oauth, tokens, authConfig, logger)

	handler := collector.InstrumentHandler(mux)
	handler = server.SPAMiddleware(handler, "./static", "./static/index.html")

	srv := server.New(cfg.Server, logger, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	pipeline.Wait()
	logger.Info("stopped")
}
