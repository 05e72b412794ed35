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

	"github.com/Nurbek02/adventure-race-system/config"
	"github.com/Nurbek02/adventure-race-system/db"
	"github.com/Nurbek02/adventure-race-system/handlers"
	appMiddleware "github.com/Nurbek02/adventure-race-system/middleware"
	"github.com/Nurbek02/adventure-race-system/repositories"
	api "github.com/Nurbek02/adventure-race-system/routes"
	"github.com/Nurbek02/adventure-race-system/services"
	"github.com/Nurbek02/adventure-race-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Хранилище фотоподтверждений (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize evidence uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("evidence uploader initialized")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	raceRepo := repositories.NewPostgresRaceRepository(dbConn)
	categoryRepo := repositories.NewPostgresCategoryRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	checkpointRepo := repositories.NewPostgresCheckpointRepository(dbConn)
	taskRepo := repositories.NewPostgresTaskRepository(dbConn)
	completionRepo := repositories.NewPostgresCompletionRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, emailService, logger)
	teamService := services.NewTeamService(teamRepo, userRepo)
	raceService := services.NewRaceService(raceRepo, checkpointRepo, taskRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	registrationService := services.NewRegistrationService(
		registrationRepo, raceRepo, teamRepo, categoryRepo, userRepo, emailService, logger)

	guard := services.NewAccessGuard(userRepo, registrationRepo)
	ledgerService := services.NewLedgerService(
		completionRepo, raceRepo, checkpointRepo, taskRepo, guard, uploader, logger)
	standingsService := services.NewStandingsService(
		raceRepo, registrationRepo, completionRepo, logger)
	logger.Info("services initialized")

	// HTTP-обработчики и маршруты
	authenticator := appMiddleware.NewAuthenticator(cfg.JWTSecretKey)
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		handlers.NewTeamHandler(teamService),
		handlers.NewRaceHandler(raceService),
		handlers.NewCategoryHandler(categoryService),
		handlers.NewRegistrationHandler(registrationService),
		handlers.NewLedgerHandler(ledgerService),
		handlers.NewStandingsHandler(standingsService),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
