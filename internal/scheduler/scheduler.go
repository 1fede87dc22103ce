package scheduler

import (
	"context"
	"time"

	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// Job names for guards and locks.
const (
	jobDistribution = "distribution"
	jobRecycling    = "recycling"
)

// lockTTL is long enough to cover one job execution, short enough that a
// crashed holder does not block the next day's run.
const lockTTL = 30 * time.Minute

// ConfigSource reads and maintains the active distribution policy.
type ConfigSource interface {
	GetActive(ctx context.Context) (exportconfig.Config, error)
	ClearTodayCancellation(ctx context.Context, id uuid.UUID) error
}

// Distributor runs a distribution pass.
type Distributor interface {
	Execute(ctx context.Context, trigger string, allocatorID *uuid.UUID) (distribution.Result, error)
}

// RecycleRunner runs a recycling pass.
type RecycleRunner interface {
	Run(ctx context.Context) (distribution.RecycleResult, error)
}

// DayGuard persists once-a-day execution markers.
type DayGuard interface {
	AlreadyRan(ctx context.Context, job string, day time.Time) (bool, error)
	MarkRan(ctx context.Context, job string, day time.Time) error
}

// Scheduler evaluates the minute grid against the active policy and the
// recycling cutoff.
type Scheduler struct {
	configs     ConfigSource
	distributor Distributor
	recycler    RecycleRunner
	guard       DayGuard
	locker      Locker
	clock       Clock
	log         *logger.Logger

	location        *time.Location
	recyclingCutoff string
	tick            time.Duration
}

type Options struct {
	Location        *time.Location
	RecyclingCutoff string
	Tick            time.Duration
	Clock           Clock
	Locker          Locker
}

func New(configs ConfigSource, distributor Distributor, recycler RecycleRunner, guard DayGuard, log *logger.Logger, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Locker == nil {
		opts.Locker = NoopLocker{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}

	return &Scheduler{
		configs:         configs,
		distributor:     distributor,
		recycler:        recycler,
		guard:           guard,
		locker:          opts.Locker,
		clock:           opts.Clock,
		log:             log,
		location:        opts.Location,
		recyclingCutoff: opts.RecyclingCutoff,
		tick:            opts.Tick,
	}
}

// Run blocks, evaluating Tick on the configured interval until the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.JobEvent("scheduler", "started",
		"timezone", s.location.String(),
		"recycling_cutoff", s.recyclingCutoff,
	)

	for {
		select {
		case <-ctx.Done():
			s.log.JobEvent("scheduler", "stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates one scheduling instant. Exported so tests can drive a full
// simulated day through a fake clock.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().In(s.location)
	s.tickDistribution(ctx, now)
	s.tickRecycling(ctx, now)
}

func (s *Scheduler) tickDistribution(ctx context.Context, now time.Time) {
	cfg, err := s.configs.GetActive(ctx)
	if err != nil {
		if err != exportconfig.ErrNoActiveConfig {
			s.log.JobError(jobDistribution, err)
		}
		return
	}

	if now.Format("15:04") != cfg.ScheduledTime {
		return
	}
	if cfg.ExecutedOn(now) {
		return
	}

	if skip, consume := cfg.ShouldSkip(now); skip {
		s.log.JobEvent(jobDistribution, "skipped by cancellation",
			"cancellation", cfg.CancellationType,
		)
		if consume {
			if err := s.configs.ClearTodayCancellation(ctx, cfg.ID); err != nil {
				s.log.JobError(jobDistribution, err)
			}
		}
		return
	}

	won, err := s.locker.TryLock(ctx, jobDistribution+":"+now.Format("2006-01-02"), lockTTL)
	if err != nil {
		s.log.JobError(jobDistribution, err)
		return
	}
	if !won {
		s.log.JobEvent(jobDistribution, "lock held by another replica")
		return
	}

	if _, err := s.distributor.Execute(ctx, distribution.TriggerScheduled, nil); err != nil {
		s.log.JobError(jobDistribution, err)
	}
}

func (s *Scheduler) tickRecycling(ctx context.Context, now time.Time) {
	if now.Format("15:04") != s.recyclingCutoff {
		return
	}

	ran, err := s.guard.AlreadyRan(ctx, jobRecycling, now)
	if err != nil {
		s.log.JobError(jobRecycling, err)
		return
	}
	if ran {
		return
	}

	won, err := s.locker.TryLock(ctx, jobRecycling+":"+now.Format("2006-01-02"), lockTTL)
	if err != nil {
		s.log.JobError(jobRecycling, err)
		return
	}
	if !won {
		s.log.JobEvent(jobRecycling, "lock held by another replica")
		return
	}

	if _, err := s.recycler.Run(ctx); err != nil {
		s.log.JobError(jobRecycling, err)
		// Guard stays unset; the partitions that failed are still open and
		// the next cutoff picks them up.
		return
	}

	if err := s.guard.MarkRan(ctx, jobRecycling, now); err != nil {
		s.log.JobError(jobRecycling, err)
	}
}
