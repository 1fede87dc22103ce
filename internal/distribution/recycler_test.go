package distribution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"salesops_backend/internal/assignments/domain"
	"salesops_backend/internal/assignments/repository"
	"salesops_backend/internal/events"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeAssignmentSource struct {
	mu     sync.Mutex
	active map[uuid.UUID]repository.Assignment
}

func newFakeAssignmentSource(items ...repository.Assignment) *fakeAssignmentSource {
	s := &fakeAssignmentSource{active: make(map[uuid.UUID]repository.Assignment)}
	for _, a := range items {
		s.active[a.ID] = a
	}
	return s
}

func (s *fakeAssignmentSource) ListActive(context.Context) ([]repository.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Assignment, 0, len(s.active))
	for _, a := range s.active {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeAssignmentSource) Deactivate(_ context.Context, ids []uuid.UUID, _ domain.Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.active[id]; ok {
			delete(s.active, id)
			n++
		}
	}
	return n, nil
}

type fakeLeadReturner struct {
	mu           sync.Mutex
	fresh        []uuid.UUID
	reusable     []uuid.UUID
	failFresh    error
	failReusable error
}

func (f *fakeLeadReturner) BulkReturnFresh(_ context.Context, ids []uuid.UUID, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFresh != nil {
		return 0, f.failFresh
	}
	f.fresh = append(f.fresh, ids...)
	return int64(len(ids)), nil
}

func (f *fakeLeadReturner) BulkReturnReusable(_ context.Context, ids []uuid.UUID, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReusable != nil {
		return 0, f.failReusable
	}
	f.reusable = append(f.reusable, ids...)
	return int64(len(ids)), nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func liveAssignment(status domain.Status) repository.Assignment {
	return repository.Assignment{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		AdvisorID: uuid.New(),
		Status:    status,
		Active:    true,
	}
}

func TestRecyclerPartitionsByStatus(t *testing.T) {
	pendiente1 := liveAssignment(domain.StatusPendiente)
	pendiente2 := liveAssignment(domain.StatusPendiente)
	contactado := liveAssignment(domain.StatusContactado)
	noContesta := liveAssignment(domain.StatusNoContesta)
	enGestion := liveAssignment(domain.StatusEnGestion)

	source := newFakeAssignmentSource(pendiente1, pendiente2, contactado, noContesta, enGestion)
	returner := &fakeLeadReturner{}
	bus := &recordingBus{}
	recycler := NewRecycler(source, returner, bus, logger.New("development"))

	result, err := recycler.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FreshReturned != 2 {
		t.Fatalf("expected 2 fresh returns, got %d", result.FreshReturned)
	}
	if result.ReusableReturned != 3 {
		t.Fatalf("expected 3 reusable returns, got %d", result.ReusableReturned)
	}

	freshSet := make(map[uuid.UUID]bool)
	for _, id := range returner.fresh {
		freshSet[id] = true
	}
	if !freshSet[pendiente1.LeadID] || !freshSet[pendiente2.LeadID] {
		t.Fatal("expected untouched leads in the fresh partition")
	}
	if freshSet[contactado.LeadID] {
		t.Fatal("managed lead leaked into the fresh partition")
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	recycled, ok := bus.events[0].(events.LeadsRecycled)
	if !ok {
		t.Fatalf("expected LeadsRecycled event, got %T", bus.events[0])
	}
	if recycled.FreshReturned != 2 || recycled.ReusableReturned != 3 {
		t.Fatalf("event totals mismatch: %+v", recycled)
	}
}

func TestRecyclerIsIdempotent(t *testing.T) {
	source := newFakeAssignmentSource(
		liveAssignment(domain.StatusPendiente),
		liveAssignment(domain.StatusVenta),
	)
	returner := &fakeLeadReturner{}
	recycler := NewRecycler(source, returner, &recordingBus{}, logger.New("development"))

	if _, err := recycler.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}

	second, err := recycler.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if second.FreshReturned != 0 || second.ReusableReturned != 0 {
		t.Fatalf("expected second run to be a no-op, got %+v", second)
	}
	if len(returner.fresh) != 1 || len(returner.reusable) != 1 {
		t.Fatalf("expected no additional returns, got %d fresh / %d reusable",
			len(returner.fresh), len(returner.reusable))
	}
}

func TestRecyclerPartitionFailureIsIsolated(t *testing.T) {
	pendiente := liveAssignment(domain.StatusPendiente)
	venta := liveAssignment(domain.StatusVenta)
	source := newFakeAssignmentSource(pendiente, venta)
	returner := &fakeLeadReturner{failFresh: errors.New("boom")}
	recycler := NewRecycler(source, returner, &recordingBus{}, logger.New("development"))

	result, err := recycler.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error from the failed partition")
	}

	// The reusable partition still went through.
	if result.ReusableReturned != 1 {
		t.Fatalf("expected reusable partition to complete, got %d", result.ReusableReturned)
	}

	// The failed partition's assignment stays open for the next pass.
	remaining, _ := source.ListActive(context.Background())
	if len(remaining) != 1 || remaining[0].ID != pendiente.ID {
		t.Fatalf("expected the failed partition to remain active, got %v", remaining)
	}

	// A retry with the failure cleared finishes the job.
	returner.failFresh = nil
	retry, err := recycler.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if retry.FreshReturned != 1 {
		t.Fatalf("expected retry to return the remaining lead, got %+v", retry)
	}
}

func TestRecyclerEmptyIsNoOp(t *testing.T) {
	source := newFakeAssignmentSource()
	bus := &recordingBus{}
	recycler := NewRecycler(source, &fakeLeadReturner{}, bus, logger.New("development"))

	result, err := recycler.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FreshReturned != 0 || result.ReusableReturned != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if len(bus.events) != 0 {
		t.Fatal("expected no events on an empty pass")
	}
}
