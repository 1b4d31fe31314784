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
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/database"
	"github.com/stemsi/gradebook-backend/internal/handler"
	"github.com/stemsi/gradebook-backend/internal/logger"
	"github.com/stemsi/gradebook-backend/internal/middleware"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/stemsi/gradebook-backend/internal/repository/memstore"
	"github.com/stemsi/gradebook-backend/internal/router"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
	"github.com/stemsi/gradebook-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Bool("auth_enabled", cfg.AuthEnabled).
		Msg("Starting Gradebook Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Storage ───────────────────────────────────────────────────────
	var (
		store repository.Store
		db    handler.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		store = memstore.New()
	case config.StoragePostgres:
		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = repository.NewPostgresStore(pool)
		db = pinger(pool)
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Audit Trail ───────────────────────────────────────────────────
	auditService := service.NewAuditService(store, log)

	var publisher service.AuditPublisher
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if rdb != nil {
		publisher = service.NewQueueAuditPublisher(rdb)
		auditWorker := worker.NewAuditWorker(worker.NewRedisQueue(rdb), auditService, cfg.AuditBatchSize, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			auditWorker.Start(workerCtx)
		}()
	} else {
		publisher = service.NewStoreAuditPublisher(store)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, store, log)
	courseService := service.NewCourseService(store, publisher, log)
	professorService := service.NewProfessorService(store, publisher, log)
	studentService := service.NewStudentService(store, publisher, log)
	disciplineService := service.NewDisciplineService(store, publisher, log)
	enrollmentService := service.NewEnrollmentService(store, publisher, log)
	gradeService := service.NewGradeService(store, publisher, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Course:     handler.NewCourseHandler(courseService),
		Professor:  handler.NewProfessorHandler(professorService),
		Student:    handler.NewStudentHandler(studentService),
		Discipline: handler.NewDisciplineHandler(disciplineService, enrollmentService, gradeService),
		Enrollment: handler.NewEnrollmentHandler(enrollmentService),
		Grade:      handler.NewGradeHandler(gradeService),
		Audit:      handler.NewAuditHandler(auditService),
		System:     handler.NewSystemHandler(db, rdb, cfg.StorageDriver, log),
	}

	loginLimiter := middleware.NewRateLimiter(rdb, "login", cfg.RateLimitPerMinute, time.Minute, log)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, loginLimiter, handlers, cfg, log)

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

	// 2. Stop the audit worker and wait for its buffer to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// pinger keeps a nil *pgxpool.Pool from becoming a non-nil handler.Pinger.
func pinger(pool *pgxpool.Pool) handler.Pinger {
	if pool == nil {
		return nil
	}
	return pool
}
