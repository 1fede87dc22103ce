package distribution

import (
	"context"
	"testing"
	"time"

	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLead struct {
	PoolLead
	assignedTo *uuid.UUID
}

type fakePool struct {
	leads map[uuid.UUID]*fakeLead
	// ordered ids, fresh and reusable partitions
	fresh    []uuid.UUID
	reusable []uuid.UUID
	// claimDenied simulates a concurrent writer winning the claim race.
	claimDenied map[uuid.UUID]bool
}

func newFakePool() *fakePool {
	return &fakePool{
		leads:       make(map[uuid.UUID]*fakeLead),
		claimDenied: make(map[uuid.UUID]bool),
	}
}

func (p *fakePool) addFresh(obraSocial string, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		p.leads[id] = &fakeLead{PoolLead: PoolLead{ID: id, ObraSocial: obraSocial, IsUsed: false}}
		p.fresh = append(p.fresh, id)
		ids = append(ids, id)
	}
	return ids
}

func (p *fakePool) addReusable(obraSocial string, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		p.leads[id] = &fakeLead{PoolLead: PoolLead{ID: id, ObraSocial: obraSocial, IsUsed: true}}
		p.reusable = append(p.reusable, id)
		ids = append(ids, id)
	}
	return ids
}

func (p *fakePool) matches(lead *fakeLead, q PoolQuery) bool {
	if lead.assignedTo != nil {
		return false
	}
	for _, excluded := range q.Exclude {
		if excluded == lead.ID {
			return false
		}
	}
	if q.ObraSocial != "" && lead.ObraSocial != q.ObraSocial {
		return false
	}
	return true
}

func (p *fakePool) query(ids []uuid.UUID, q PoolQuery) []PoolLead {
	out := make([]PoolLead, 0)
	for _, id := range ids {
		lead := p.leads[id]
		if !p.matches(lead, q) {
			continue
		}
		out = append(out, lead.PoolLead)
		if len(out) == q.Limit {
			break
		}
	}
	return out
}

func (p *fakePool) QueryFresh(_ context.Context, q PoolQuery) ([]PoolLead, error) {
	return p.query(p.fresh, q), nil
}

func (p *fakePool) QueryReusable(_ context.Context, q PoolQuery, _ time.Time) ([]PoolLead, error) {
	return p.query(p.reusable, q), nil
}

func (p *fakePool) QueryAvailable(_ context.Context, q PoolQuery) ([]PoolLead, error) {
	all := append(append([]uuid.UUID{}, p.fresh...), p.reusable...)
	return p.query(all, q), nil
}

func (p *fakePool) Claim(_ context.Context, leadID, advisorID uuid.UUID, _ bool) (bool, error) {
	if p.claimDenied[leadID] {
		return false, nil
	}
	lead := p.leads[leadID]
	if lead.assignedTo != nil {
		return false, nil
	}
	lead.assignedTo = &advisorID
	return true, nil
}

type fakeAssignments struct {
	created map[uuid.UUID]string // lead id -> source type
}

func (a *fakeAssignments) Create(_ context.Context, leadID, _ uuid.UUID, _ *uuid.UUID, sourceType string) (uuid.UUID, error) {
	if a.created == nil {
		a.created = make(map[uuid.UUID]string)
	}
	a.created[leadID] = sourceType
	return uuid.New(), nil
}

func newTestEngine(pool *fakePool, assignments *fakeAssignments) *Engine {
	e := NewEngine(pool, assignments, logger.New("development"))
	// Deterministic order for assertions.
	e.shuffle = func(int, func(i, j int)) {}
	return e
}

func TestRunDestinationsAreDisjoint(t *testing.T) {
	pool := newFakePool()
	pool.addFresh("", 10)
	assignments := &fakeAssignments{}
	engine := newTestEngine(pool, assignments)

	advisorA := uuid.New()
	advisorB := uuid.New()

	result, err := engine.Run(context.Background(), Request{
		Destinations: []exportconfig.Destination{
			{AdvisorID: advisorA, Quantity: 6},
			{AdvisorID: advisorB, Quantity: 6},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, dest := range result.Destinations {
		for _, id := range dest.LeadIDs {
			if seen[id] {
				t.Fatalf("lead %s assigned to more than one destination", id)
			}
			seen[id] = true
		}
	}

	if result.Destinations[0].Assigned != 6 {
		t.Fatalf("expected first destination fully served, got %d", result.Destinations[0].Assigned)
	}
	// Pool of 10 leaves only 4 for the second destination.
	if result.Destinations[1].Assigned != 4 || result.Destinations[1].Deficit != 2 {
		t.Fatalf("expected 4 assigned with deficit 2, got %d/%d",
			result.Destinations[1].Assigned, result.Destinations[1].Deficit)
	}
	if result.TotalDeficit() != 2 {
		t.Fatalf("expected total deficit 2, got %d", result.TotalDeficit())
	}
}

func TestRunMixArithmetic(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int
		freshPct     int
		wantFresh    int
		wantReusable int
	}{
		{name: "even split at 70", quantity: 100, freshPct: 70, wantFresh: 70, wantReusable: 30},
		{name: "floor then remainder", quantity: 3, freshPct: 50, wantFresh: 1, wantReusable: 2},
		{name: "all fresh", quantity: 10, freshPct: 100, wantFresh: 10, wantReusable: 0},
		{name: "all reusable", quantity: 10, freshPct: 0, wantFresh: 0, wantReusable: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool := newFakePool()
			pool.addFresh("", tc.quantity)
			pool.addReusable("", tc.quantity)
			assignments := &fakeAssignments{}
			engine := newTestEngine(pool, assignments)

			result, err := engine.Run(context.Background(), Request{
				Destinations: []exportconfig.Destination{
					{
						AdvisorID: uuid.New(),
						Quantity:  tc.quantity,
						Mix:       exportconfig.Mix{Enabled: true, FreshPct: tc.freshPct},
					},
				},
				StaleBefore: time.Now(),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			gotFresh, gotReusable := 0, 0
			for _, source := range assignments.created {
				switch source {
				case SourceFresh:
					gotFresh++
				case SourceReusable:
					gotReusable++
				}
			}
			if gotFresh != tc.wantFresh || gotReusable != tc.wantReusable {
				t.Fatalf("expected %d fresh / %d reusable, got %d/%d",
					tc.wantFresh, tc.wantReusable, gotFresh, gotReusable)
			}
			if result.TotalAssigned() != tc.quantity {
				t.Fatalf("expected %d assigned, got %d", tc.quantity, result.TotalAssigned())
			}
		})
	}
}

func TestRunCategoryQuotas(t *testing.T) {
	pool := newFakePool()
	pool.addFresh("OSDE", 5)
	pool.addReusable("Swiss Medical", 5)
	assignments := &fakeAssignments{}
	engine := newTestEngine(pool, assignments)

	result, err := engine.Run(context.Background(), Request{
		Destinations: []exportconfig.Destination{
			{
				AdvisorID: uuid.New(),
				Quantity:  7,
				Categories: []exportconfig.CategoryQuota{
					{ObraSocial: "OSDE", Count: 4},
					{ObraSocial: "Swiss Medical", Count: 3},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalAssigned() != 7 {
		t.Fatalf("expected 7 assigned, got %d", result.TotalAssigned())
	}

	byObra := make(map[string]int)
	for id := range assignments.created {
		byObra[pool.leads[id].ObraSocial]++
	}
	if byObra["OSDE"] != 4 || byObra["Swiss Medical"] != 3 {
		t.Fatalf("expected 4 OSDE / 3 Swiss Medical, got %v", byObra)
	}

	// Provenance follows the record when categories drive the pull.
	for id, source := range assignments.created {
		wantFresh := !pool.leads[id].IsUsed
		if wantFresh && source != SourceFresh {
			t.Fatalf("lead %s expected fresh source, got %s", id, source)
		}
		if !wantFresh && source != SourceReusable {
			t.Fatalf("lead %s expected reusable source, got %s", id, source)
		}
	}
}

func TestRunSkipsLostClaims(t *testing.T) {
	pool := newFakePool()
	ids := pool.addFresh("", 5)
	pool.claimDenied[ids[0]] = true
	pool.claimDenied[ids[1]] = true
	assignments := &fakeAssignments{}
	engine := newTestEngine(pool, assignments)

	result, err := engine.Run(context.Background(), Request{
		Destinations: []exportconfig.Destination{
			{AdvisorID: uuid.New(), Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalAssigned() != 3 {
		t.Fatalf("expected 3 assigned after lost claims, got %d", result.TotalAssigned())
	}
	if result.Destinations[0].Deficit != 2 {
		t.Fatalf("expected deficit 2, got %d", result.Destinations[0].Deficit)
	}
	for _, id := range result.Destinations[0].LeadIDs {
		if pool.claimDenied[id] {
			t.Fatalf("denied lead %s ended up assigned", id)
		}
	}
}

func TestRunEmptyPoolReportsFullDeficit(t *testing.T) {
	pool := newFakePool()
	assignments := &fakeAssignments{}
	engine := newTestEngine(pool, assignments)

	result, err := engine.Run(context.Background(), Request{
		Destinations: []exportconfig.Destination{
			{AdvisorID: uuid.New(), Quantity: 20},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalAssigned() != 0 || result.TotalDeficit() != 20 {
		t.Fatalf("expected 0 assigned / 20 deficit, got %d/%d",
			result.TotalAssigned(), result.TotalDeficit())
	}
}
