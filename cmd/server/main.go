package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/database"
	"github.com/stemsi/studygroup-backend/internal/handler"
	"github.com/stemsi/studygroup-backend/internal/logger"
	"github.com/stemsi/studygroup-backend/internal/middleware"
	"github.com/stemsi/studygroup-backend/internal/repository"
	"github.com/stemsi/studygroup-backend/internal/router"
	"github.com/stemsi/studygroup-backend/internal/service"
	"github.com/stemsi/studygroup-backend/internal/validator"
	"github.com/stemsi/studygroup-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Study Group Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Store ──────────────────────────────────────────────
	var (
		pool  *pgxpool.Pool
		store repository.StudyGroupRepository
		err   error
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = repository.NewPostgresStudyGroupRepository(pool)
	default:
		store = repository.NewMemoryStudyGroupRepository()
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	var publisher service.EventPublisher = service.NopEventPublisher{}
	if rdb != nil {
		publisher = service.NewRedisEventPublisher(rdb, log)
	}
	groupService := service.NewStudyGroupService(store, publisher, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		StudyGroup: handler.NewStudyGroupHandler(groupService, log),
	}
	if rdb != nil {
		handlers.Activity = handler.NewActivityHandler(rdb, groupService, log, cfg.AllowedOrigins)
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		go limiter.RunCleanup(workerCtx)
	}

	switch {
	case rdb != nil && pool != nil:
		eventWorker := worker.NewGroupEventWorker(repository.NewGroupEventRepository(pool), rdb, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			eventWorker.Start(workerCtx)
		}()
	case rdb != nil:
		log.Warn().Msg("Memory store in use, group events are queued but not persisted")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, limiter, cfg)

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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the event queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
