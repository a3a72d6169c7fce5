package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"psychinsights-backend/internal/config"
	"psychinsights-backend/internal/database"
	"psychinsights-backend/internal/handlers"
	"psychinsights-backend/internal/labstate"
	"psychinsights-backend/internal/logging"
	"psychinsights-backend/internal/middleware"
	"psychinsights-backend/internal/repository"
	"psychinsights-backend/internal/router"
	"psychinsights-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting PsychInsights Backend...")
	logger.Info("✓ Environment variables loaded", zap.String("env", cfg.Env))

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	pool, err := database.NewPostgresPool(connectCtx, cfg.DatabaseURL, database.PoolSettings{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
	})
	cancelConnect()
	if err != nil {
		logger.Fatal("✗ PostgreSQL connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("✗ Redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	err = database.RunMigrations(migrateCtx, pool, cfg.MigrationsDir, logger)
	cancelMigrate()
	if err != nil {
		logger.Fatal("✗ Database migration failed", zap.Error(err))
	}
	logger.Info("✓ Database migrations applied")

	// ──── Step 5: Initialize AI Completer ────
	var completer services.Completer
	switch cfg.AIProvider {
	case "gemini":
		gemini, err := services.NewGeminiCompleter(context.Background(), cfg.GeminiAPIKey, cfg.AIModel)
		if err != nil {
			logger.Fatal("✗ Gemini client initialization failed", zap.Error(err))
		}
		defer gemini.Close()
		completer = gemini
	default:
		completer = services.NewGatewayCompleter(cfg.AIGatewayURL, cfg.AIGatewayKey, cfg.AIModel, cfg.AIRequestTimeout)
	}
	logger.Info("✓ AI completer initialized", zap.String("provider", cfg.AIProvider), zap.String("model", cfg.AIModel))

	// ──── Initialize Repositories & Services ────
	classRepo := repository.NewClassRepo(pool)
	studentRepo := repository.NewStudentRepo(pool)

	analyzer := services.NewAnalyzer(completer, cfg.AIMaxAttempts, cfg.AIRetryDelay, logger.Named("analyzer"))
	classroom := services.NewClassroomService(classRepo, studentRepo, logger.Named("classroom"))
	labStore := labstate.NewRedisStore(redisClient, cfg.LabStateTTL)

	// ──── Initialize Handlers ────
	functionsHandler := handlers.NewFunctionsHandler(analyzer, logger.Named("functions"))
	classHandler := handlers.NewClassHandler(classroom)
	studentHandler := handlers.NewStudentHandler(classroom)
	labHandler := handlers.NewLabHandler(labStore, logger.Named("lab"))

	functionLimiter := middleware.NewRateLimiter(cfg.FunctionRequestsPerMin, time.Minute, middleware.WriteFunctionError)
	defer functionLimiter.Stop()

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		functionsHandler,
		classHandler,
		studentHandler,
		labHandler,
		functionLimiter,
		cfg.CORSAllowOrigin,
	)

	// Analysis requests can span every retry attempt.
	writeTimeout := time.Duration(cfg.AIMaxAttempts)*(cfg.AIRequestTimeout+cfg.AIRetryDelay) + 15*time.Second

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown did not complete", zap.Error(err))
		}
		close(idle)
	}()

	logger.Info(fmt.Sprintf("✓ PsychInsights Backend ready on http://localhost:%s", cfg.Port))
	logger.Info(fmt.Sprintf("  API:       http://localhost:%s/api/v1", cfg.Port))
	logger.Info(fmt.Sprintf("  Functions: http://localhost:%s/functions/v1", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}
	<-idle
}
