package scheduler

import (
	"context"
	"testing"
	"time"

	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeConfigSource struct {
	cfg     *exportconfig.Config
	cleared int
}

func (f *fakeConfigSource) GetActive(context.Context) (exportconfig.Config, error) {
	if f.cfg == nil {
		return exportconfig.Config{}, exportconfig.ErrNoActiveConfig
	}
	return *f.cfg, nil
}

func (f *fakeConfigSource) ClearTodayCancellation(_ context.Context, _ uuid.UUID) error {
	f.cleared++
	f.cfg.CancellationType = exportconfig.CancellationNone
	f.cfg.SkipDate = nil
	return nil
}

type fakeDistributor struct {
	cfg  *exportconfig.Config
	runs []time.Time
	now  func() time.Time
}

func (f *fakeDistributor) Execute(context.Context, string, *uuid.UUID) (distribution.Result, error) {
	at := f.now()
	f.runs = append(f.runs, at)
	// Mirror the real service stamping last_executed.
	f.cfg.LastExecuted = &at
	return distribution.Result{RunID: uuid.New()}, nil
}

type fakeRecycler struct {
	runs int
}

func (f *fakeRecycler) Run(context.Context) (distribution.RecycleResult, error) {
	f.runs++
	return distribution.RecycleResult{}, nil
}

type memoryGuard struct {
	ran map[string]string
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{ran: make(map[string]string)}
}

func (g *memoryGuard) AlreadyRan(_ context.Context, job string, day time.Time) (bool, error) {
	return g.ran[job] == day.Format("2006-01-02"), nil
}

func (g *memoryGuard) MarkRan(_ context.Context, job string, day time.Time) error {
	g.ran[job] = day.Format("2006-01-02")
	return nil
}

func testConfig(scheduledTime string) *exportconfig.Config {
	return &exportconfig.Config{
		ID:               uuid.New(),
		SendType:         exportconfig.SendTypeMasivo,
		ScheduledTime:    scheduledTime,
		CancellationType: exportconfig.CancellationNone,
		Settings: exportconfig.Settings{
			Destinations: []exportconfig.Destination{
				{AdvisorID: uuid.New(), Quantity: 10},
			},
		},
	}
}

func newTestScheduler(configs *fakeConfigSource, distributor *fakeDistributor, recycler *fakeRecycler, guard DayGuard, clock Clock) *Scheduler {
	return New(configs, distributor, recycler, guard, logger.New("development"), Options{
		Location:        time.UTC,
		RecyclingCutoff: "23:01",
		Clock:           clock,
	})
}

// tickDay drives the scheduler through every minute of the clock's current
// day, starting at midnight.
func tickDay(s *Scheduler, clock *fakeClock) {
	for i := 0; i < 24*60; i++ {
		s.Tick(context.Background())
		clock.advance(time.Minute)
	}
}

func TestDistributionFiresExactlyOncePerDay(t *testing.T) {
	cfg := testConfig("09:30")
	configs := &fakeConfigSource{cfg: cfg}
	clock := &fakeClock{now: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	distributor := &fakeDistributor{cfg: cfg, now: func() time.Time { return clock.now }}
	recycler := &fakeRecycler{}
	s := newTestScheduler(configs, distributor, recycler, newMemoryGuard(), clock)

	tickDay(s, clock)

	if len(distributor.runs) != 1 {
		t.Fatalf("expected exactly one distribution run, got %d", len(distributor.runs))
	}
	if got := distributor.runs[0].Format("15:04"); got != "09:30" {
		t.Fatalf("expected run at 09:30, got %s", got)
	}
	if recycler.runs != 1 {
		t.Fatalf("expected exactly one recycling run, got %d", recycler.runs)
	}

	// The next day fires again.
	tickDay(s, clock)
	if len(distributor.runs) != 2 {
		t.Fatalf("expected a second run the next day, got %d", len(distributor.runs))
	}
}

func TestDistributionGuardSurvivesWithinTheDay(t *testing.T) {
	cfg := testConfig("09:30")
	executed := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	cfg.LastExecuted = &executed

	configs := &fakeConfigSource{cfg: cfg}
	clock := &fakeClock{now: time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)}
	distributor := &fakeDistributor{cfg: cfg, now: func() time.Time { return clock.now }}
	s := newTestScheduler(configs, distributor, &fakeRecycler{}, newMemoryGuard(), clock)

	s.Tick(context.Background())

	if len(distributor.runs) != 0 {
		t.Fatalf("expected no run when already executed today, got %d", len(distributor.runs))
	}
}

func TestTodayCancellationSkipsOnlyDayD(t *testing.T) {
	cfg := testConfig("09:30")
	skipDate := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	cfg.CancellationType = exportconfig.CancellationToday
	cfg.SkipDate = &skipDate

	configs := &fakeConfigSource{cfg: cfg}
	clock := &fakeClock{now: skipDate}
	distributor := &fakeDistributor{cfg: cfg, now: func() time.Time { return clock.now }}
	s := newTestScheduler(configs, distributor, &fakeRecycler{}, newMemoryGuard(), clock)

	// Day D: the run is suppressed and the cancellation consumed.
	tickDay(s, clock)
	if len(distributor.runs) != 0 {
		t.Fatalf("expected no run on the cancelled day, got %d", len(distributor.runs))
	}
	if configs.cleared != 1 {
		t.Fatalf("expected the cancellation to be cleared once, got %d", configs.cleared)
	}

	// Day D+1: back to normal without operator intervention.
	tickDay(s, clock)
	if len(distributor.runs) != 1 {
		t.Fatalf("expected the run to resume the next day, got %d", len(distributor.runs))
	}
}

func TestIndefiniteCancellationHoldsEveryDay(t *testing.T) {
	cfg := testConfig("09:30")
	cfg.CancellationType = exportconfig.CancellationIndefinite

	configs := &fakeConfigSource{cfg: cfg}
	clock := &fakeClock{now: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	distributor := &fakeDistributor{cfg: cfg, now: func() time.Time { return clock.now }}
	s := newTestScheduler(configs, distributor, &fakeRecycler{}, newMemoryGuard(), clock)

	tickDay(s, clock)
	tickDay(s, clock)

	if len(distributor.runs) != 0 {
		t.Fatalf("expected no runs under indefinite cancellation, got %d", len(distributor.runs))
	}
	if configs.cleared != 0 {
		t.Fatal("indefinite cancellation must not self-clear")
	}
}

func TestNoActiveConfigIsQuiet(t *testing.T) {
	configs := &fakeConfigSource{}
	clock := &fakeClock{now: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	distributor := &fakeDistributor{cfg: testConfig("09:30"), now: func() time.Time { return clock.now }}
	recycler := &fakeRecycler{}
	s := newTestScheduler(configs, distributor, recycler, newMemoryGuard(), clock)

	tickDay(s, clock)

	if len(distributor.runs) != 0 {
		t.Fatal("expected no distribution without an active config")
	}
	// Recycling is independent of the distribution policy.
	if recycler.runs != 1 {
		t.Fatalf("expected recycling to run once, got %d", recycler.runs)
	}
}

func TestRecyclingRunsOncePerDay(t *testing.T) {
	configs := &fakeConfigSource{}
	clock := &fakeClock{now: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	recycler := &fakeRecycler{}
	s := newTestScheduler(configs, &fakeDistributor{cfg: testConfig("09:30"), now: func() time.Time { return clock.now }}, recycler, newMemoryGuard(), clock)

	tickDay(s, clock)
	if recycler.runs != 1 {
		t.Fatalf("expected one recycling run, got %d", recycler.runs)
	}

	tickDay(s, clock)
	if recycler.runs != 2 {
		t.Fatalf("expected a second run the next day, got %d", recycler.runs)
	}
}
