package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesops_backend/internal/adapters"
	"salesops_backend/internal/adapters/storage"
	"salesops_backend/internal/assignments"
	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/internal/email"
	"salesops_backend/internal/events"
	"salesops_backend/internal/leads"
	"salesops_backend/internal/notification"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "timezone", cfg.GetTimezone())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := time.LoadLocation(cfg.GetTimezone())
	if err != nil {
		log.Error("failed to load timezone", "error", err, "timezone", cfg.GetTimezone())
		panic("failed to load timezone: " + err.Error())
	}

	// The API runs migrations too; running them here as well means either
	// process can come up first.
	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

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

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		svc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = svc
	} else {
		log.Warn("MINIO_ENDPOINT not configured; distribution exports disabled")
	}

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

	configRepo := exportconfig.NewRepository(pool)
	distSvc := distribution.NewService(
		configRepo,
		engine,
		exporter,
		distribution.NewDirectory(pool),
		distribution.NewRunStore(pool),
		eventBus,
		log,
		cfg.GetReusableStalenessDays(),
	)

	recycler := distribution.NewRecycler(
		assignmentsModule.Repository(),
		leadsModule.Repository(),
		eventBus,
		log,
	)

	// Scheduled runs publish events onto the local bus; the dispatcher turns
	// them into asynq tasks and the worker below turns tasks back into mail.
	var locker scheduler.Locker
	if cfg.GetRedisURL() != "" {
		dispatcher, err := scheduler.NewDispatcher(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetAsynqQueueName(), log)
		if err != nil {
			log.Error("failed to initialize task dispatcher", "error", err)
			panic("failed to initialize task dispatcher: " + err.Error())
		}
		defer dispatcher.Close()
		dispatcher.RegisterHandlers(eventBus)

		redisLocker, err := scheduler.NewRedisLocker(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
		if err != nil {
			log.Error("failed to initialize redis locker", "error", err)
			panic("failed to initialize redis locker: " + err.Error())
		}
		defer redisLocker.Close()
		locker = redisLocker

		workerBus := events.NewInMemoryBus(log)
		notification.NewModule(email.NewSender(cfg), cfg.GetOperatorEmail(), log).RegisterHandlers(workerBus)

		worker, err := scheduler.NewWorker(cfg, workerBus, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("scheduler worker stopped", "error", err)
			}
		}()
		defer worker.Shutdown()
	} else {
		log.Warn("REDIS_URL not configured; notifications disabled and single-instance locking assumed")
	}

	sched := scheduler.New(
		configRepo,
		distSvc,
		recycler,
		scheduler.NewJobRunStore(pool),
		log,
		scheduler.Options{
			Location:        location,
			RecyclingCutoff: cfg.GetRecyclingCutoff(),
			Tick:            cfg.GetSchedulerTick(),
			Locker:          locker,
		},
	)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped", "error", err)
		panic("scheduler stopped: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
