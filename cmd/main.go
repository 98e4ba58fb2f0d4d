package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/config"
	"github.com/openrally/matchplay/db"
	"github.com/openrally/matchplay/dupr"
	"github.com/openrally/matchplay/handlers"
	"github.com/openrally/matchplay/middleware"
	"github.com/openrally/matchplay/repositories"
	api "github.com/openrally/matchplay/routes"
	"github.com/openrally/matchplay/seeding"
	"github.com/openrally/matchplay/services"
	"github.com/openrally/matchplay/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Audit archive for outbound rating submissions. Optional.
	var archive storage.FileUploader
	if cfg.R2Enabled() {
		archive, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 archive not configured, submission archiving disabled")
	}

	duprClient := dupr.NewDisabledClient()
	if cfg.DuprEnabled() {
		duprClient, err = dupr.NewHTTPClient(dupr.ClientConfig{
			BaseURL: cfg.DuprAPIBaseURL,
			APIKey:  cfg.DuprAPIKey,
			Archive: archive,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize DUPR client", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("DUPR client initialized")
	} else {
		logger.Info("DUPR credentials not configured, submission disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn, logger)
	logger.Info("repositories initialized")

	ranker := seeding.NewRanker(ratingRepo, nil)

	standingsService := services.NewStandingsService(
		dbConn, divisionRepo, teamRepo, matchRepo, standingRepo, wsHub, logger)
	scoreService := services.NewScoreService(
		dbConn, matchRepo, teamRepo, divisionRepo, standingsService, duprClient, wsHub, logger)
	scheduleService := services.NewScheduleService(
		dbConn, divisionRepo, teamRepo, matchRepo, standingRepo, ranker, scoreService, wsHub, logger)
	logger.Info("services initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	matchHandler := handlers.NewMatchHandler(scoreService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, scheduleHandler, matchHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
