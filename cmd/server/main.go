package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/config"
	"github.com/stemsi/ujianku-backend/internal/database"
	"github.com/stemsi/ujianku-backend/internal/handler"
	"github.com/stemsi/ujianku-backend/internal/logger"
	"github.com/stemsi/ujianku-backend/internal/repository"
	"github.com/stemsi/ujianku-backend/internal/router"
	"github.com/stemsi/ujianku-backend/internal/service"
	"github.com/stemsi/ujianku-backend/internal/validator"
	"github.com/stemsi/ujianku-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Ujianku Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo, err := repository.NewQuestionRepository(cfg.QuestionsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionsPath).Msg("Failed to open question bank")
	}
	userRepo := repository.NewUserRepository(pool)
	recordRepo := repository.NewRecordRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	codeRepo := repository.NewCodeRepository(pool, cfg.CodesPath)

	// Fail fast on a malformed bank before accepting traffic.
	if _, err := questionRepo.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionsPath).Msg("Question bank validation failed")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	settingsService := service.NewSettingsService(settingRepo, log)
	if err := settingsService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	authService := service.NewAuthService(cfg, rdb)
	questionService := service.NewQuestionService(questionRepo, recordRepo, log)
	eligibilityService := service.NewEligibilityService(recordRepo, settingsService, log)
	userService := service.NewUserService(userRepo, recordRepo, examRepo, codeRepo, settingsService, log)
	practiceService := service.NewPracticeService(questionRepo, questionService, eligibilityService, recordRepo, log)
	examService := service.NewExamService(examRepo, questionService, eligibilityService, userRepo, settingsService, log)
	exportService := service.NewExportService(userService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService),
		Practice: handler.NewPracticeHandler(practiceService),
		Exam:     handler.NewExamHandler(examService, settingsService),
		User:     handler.NewUserHandler(userService),
		Admin:    handler.NewAdminHandler(userService, examService, exportService),
		Question: handler.NewQuestionHandler(questionService),
		Setting:  handler.NewSettingHandler(settingsService),
	}
	services := &router.Services{
		Auth: authService,
		User: userService,
		Exam: examService,
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	expiryWorker := worker.NewExpiryWorker(examRepo, cfg.SweepInterval, log)
	go expiryWorker.Start(workerCtx)
	go settingsService.StartReloader(workerCtx, cfg.SettingsReload)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(services, handlers, rdb, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
