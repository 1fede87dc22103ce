package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesops_backend/internal/adapters"
	"salesops_backend/internal/adapters/storage"
	"salesops_backend/internal/assignments"
	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/exportconfig"
	disthandler "salesops_backend/internal/distribution/handler"
	"salesops_backend/internal/events"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/http/router"
	"salesops_backend/internal/leads"
	"salesops_backend/internal/scheduler"
	"salesops_backend/migrations"
	"salesops_backend/platform/config"
	"salesops_backend/platform/db"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Export CSVs live in MinIO; without it the engine still assigns leads
	// and only the downloadable artifact is missing.
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		svc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = svc
		ensureBucket(ctx, log, storageSvc, "exports", cfg.GetMinioBucketExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; distribution exports disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, val)
	assignmentsModule := assignments.NewModule(pool, leadsModule.Repository(), val)

	engine := distribution.NewEngine(
		adapters.NewLeadPoolAdapter(leadsModule.Repository()),
		adapters.NewAssignmentStoreAdapter(assignmentsModule.Repository()),
		log,
	)

	var exporter *distribution.Exporter
	if storageSvc != nil {
		exporter = distribution.NewExporter(leadsModule.Repository(), storageSvc, cfg.GetMinioBucketExports())
	}

	distSvc := distribution.NewService(
		exportconfig.NewRepository(pool),
		engine,
		exporter,
		distribution.NewDirectory(pool),
		distribution.NewRunStore(pool),
		eventBus,
		log,
		cfg.GetReusableStalenessDays(),
	)
	distModule := distribution.NewModule(distSvc, disthandler.New(distSvc, val))

	// Manual triggers publish the same events as scheduled runs. When Redis
	// is configured they are handed to the worker process via asynq.
	if cfg.GetRedisURL() != "" {
		dispatcher, err := scheduler.NewDispatcher(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetAsynqQueueName(), log)
		if err != nil {
			log.Error("failed to initialize task dispatcher", "error", err)
			panic("failed to initialize task dispatcher: " + err.Error())
		}
		defer dispatcher.Close()
		dispatcher.RegisterHandlers(eventBus)
	} else {
		log.Warn("REDIS_URL not configured; distribution notifications disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			assignmentsModule,
			distModule,
		},
	}

	engineHTTP := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engineHTTP.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
