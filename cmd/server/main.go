package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/database"
	"github.com/vssut/academia-backend/internal/handler"
	"github.com/vssut/academia-backend/internal/logger"
	"github.com/vssut/academia-backend/internal/middleware"
	"github.com/vssut/academia-backend/internal/repository"
	"github.com/vssut/academia-backend/internal/router"
	"github.com/vssut/academia-backend/internal/service"
	"github.com/vssut/academia-backend/internal/validator"
	"github.com/vssut/academia-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", string(cfg.StoreDriver)).
		Bool("lock_blocks_submit", cfg.LockBlocksSubmit).
		Msg("Starting Academia Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.close()

	healthChecks := map[string]handler.PingFunc{"store": st.ping}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	var (
		examCache  service.ExamCache
		publisher  service.AttemptEventPublisher
		subscriber handler.AttemptEventSubscriber
	)
	if rdb != nil {
		defer rdb.Close()
		bus := repository.NewAttemptEventBus(rdb)
		examCache = repository.NewExamCache(rdb, cfg.ExamCacheTTL)
		publisher = bus
		subscriber = bus
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(st.exams, examCache, log)
	accessService := service.NewAccessService(examService, st.profiles, st.enrollments, log)

	attemptOpts := []service.AttemptServiceOption{service.WithLockBlocksSubmit(cfg.LockBlocksSubmit)}
	if publisher != nil {
		attemptOpts = append(attemptOpts, service.WithEvents(publisher))
	}
	attemptService := service.NewAttemptService(st.attempts, examService, log, attemptOpts...)
	auditService := service.NewAuditService(st.lockEvents, examService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(examService, accessService, log),
		Attempt: handler.NewAttemptHandler(attemptService, auditService, log),
		Monitor: handler.NewMonitorHandler(examService, attemptService, subscriber, cfg.AllowedOrigins, log),
		Health:  handler.NewHealthHandler(healthChecks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if rdb != nil {
		lockAuditWorker := worker.NewLockAuditWorker(worker.NewLockEventQueue(rdb), st.lockEvents, log)
		go func() {
			defer close(workerDone)
			lockAuditWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	var limiter *middleware.RateLimiter
	if cfg.AttemptRateLimit > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.AttemptRateLimit, time.Minute)
	}
	r := router.SetupRouter(handlers, limiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the audit worker and wait for its final flush.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Lock audit worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
