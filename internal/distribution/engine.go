package distribution

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// Request describes one distribution run.
type Request struct {
	Destinations []exportconfig.Destination
	// AllocatorID identifies who triggered the run, nil for the scheduler.
	AllocatorID *uuid.UUID
	// StaleBefore is the cutoff under which interaction substates count as
	// reusable.
	StaleBefore time.Time
}

// DestinationResult is the per-advisor outcome of a run.
type DestinationResult struct {
	AdvisorID uuid.UUID
	Requested int
	Assigned  int
	Deficit   int
	LeadIDs   []uuid.UUID
}

// Result aggregates a whole run.
type Result struct {
	RunID        uuid.UUID
	Destinations []DestinationResult
}

func (r Result) TotalRequested() int {
	total := 0
	for _, d := range r.Destinations {
		total += d.Requested
	}
	return total
}

func (r Result) TotalAssigned() int {
	total := 0
	for _, d := range r.Destinations {
		total += d.Assigned
	}
	return total
}

func (r Result) TotalDeficit() int {
	return r.TotalRequested() - r.TotalAssigned()
}

// Engine distributes leads to destinations. One engine instance is safe for
// repeated runs; each run gets its own exclusion set.
type Engine struct {
	pool        LeadPool
	assignments AssignmentStore
	log         *logger.Logger
	shuffle     func(n int, swap func(i, j int))
}

func NewEngine(pool LeadPool, assignments AssignmentStore, log *logger.Logger) *Engine {
	return &Engine{
		pool:        pool,
		assignments: assignments,
		log:         log,
		shuffle:     rand.Shuffle,
	}
}

// Run processes destinations sequentially, sharing one exclusion set so no
// lead reaches two advisors. Pool shortfalls surface as deficits in the
// result, not as errors.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{RunID: uuid.New()}
	excluded := NewExclusionSet()

	for _, dest := range req.Destinations {
		destResult, err := e.runDestination(ctx, req, dest, excluded)
		if err != nil {
			return result, fmt.Errorf("destination %s: %w", dest.AdvisorID, err)
		}
		result.Destinations = append(result.Destinations, destResult)
	}

	return result, nil
}

// runDestination fills one advisor's quota. Category quotas, the
// fresh/reusable mix, and the plain pull are mutually exclusive modes;
// exportconfig validation already rejected combinations.
func (e *Engine) runDestination(ctx context.Context, req Request, dest exportconfig.Destination, excluded *ExclusionSet) (DestinationResult, error) {
	result := DestinationResult{
		AdvisorID: dest.AdvisorID,
		Requested: dest.Quantity,
		LeadIDs:   make([]uuid.UUID, 0, dest.Quantity),
	}

	base := PoolQuery{}
	if dest.AgeRange != nil {
		base.MinAge = dest.AgeRange.Min
		base.MaxAge = dest.AgeRange.Max
	}

	switch {
	case len(dest.Categories) > 0:
		for _, cat := range dest.Categories {
			q := base
			q.ObraSocial = cat.ObraSocial
			q.Limit = cat.Count
			q.Exclude = excluded.IDs()
			leads, err := e.pool.QueryAvailable(ctx, q)
			if err != nil {
				return result, err
			}
			if err := e.assignLeads(ctx, req, dest.AdvisorID, e.shuffled(tagByRecord(leads)), excluded, &result); err != nil {
				return result, err
			}
		}

	case dest.Mix.Enabled:
		// Integer floor split: the fresh share rounds down and the
		// remainder goes to the reusable pull.
		freshCount := dest.Quantity * dest.Mix.FreshPct / 100
		reusableCount := dest.Quantity - freshCount

		var freshLeads, reusableLeads []PoolLead
		if freshCount > 0 {
			q := base
			q.Limit = freshCount
			q.Exclude = excluded.IDs()
			leads, err := e.pool.QueryFresh(ctx, q)
			if err != nil {
				return result, err
			}
			freshLeads = leads
		}
		if reusableCount > 0 {
			q := base
			q.Limit = reusableCount
			q.Exclude = excluded.IDs()
			leads, err := e.pool.QueryReusable(ctx, q, req.StaleBefore)
			if err != nil {
				return result, err
			}
			reusableLeads = leads
		}

		// Shuffle both pulls together so export order hides which pool a
		// lead came from.
		combined := append(tag(freshLeads, true), tag(reusableLeads, false)...)
		if err := e.assignLeads(ctx, req, dest.AdvisorID, e.shuffled(combined), excluded, &result); err != nil {
			return result, err
		}

	default:
		q := base
		q.Limit = dest.Quantity
		q.Exclude = excluded.IDs()
		leads, err := e.pool.QueryAvailable(ctx, q)
		if err != nil {
			return result, err
		}
		if err := e.assignLeads(ctx, req, dest.AdvisorID, e.shuffled(tagByRecord(leads)), excluded, &result); err != nil {
			return result, err
		}
	}

	result.Deficit = result.Requested - result.Assigned
	if result.Deficit > 0 {
		e.log.Warn("destination quota not met",
			"advisor_id", dest.AdvisorID.String(),
			"requested", result.Requested,
			"assigned", result.Assigned,
		)
	}

	return result, nil
}

// candidate is a pool lead tagged with the provenance it will be assigned
// under.
type candidate struct {
	lead  PoolLead
	fresh bool
}

// assignLeads claims candidates one by one. Every candidate enters the
// exclusion set before its claim attempt, so even a lost claim race never
// lets a later destination see the lead again within this run.
func (e *Engine) assignLeads(ctx context.Context, req Request, advisorID uuid.UUID, candidates []candidate, excluded *ExclusionSet, result *DestinationResult) error {
	for _, cand := range candidates {
		if excluded.Contains(cand.lead.ID) {
			continue
		}
		excluded.Add(cand.lead.ID)

		claimed, err := e.pool.Claim(ctx, cand.lead.ID, advisorID, cand.fresh)
		if err != nil {
			return err
		}
		if !claimed {
			// Lost to a concurrent writer. The lead stays excluded.
			continue
		}

		source := SourceReusable
		if cand.fresh {
			source = SourceFresh
		}
		if _, err := e.assignments.Create(ctx, cand.lead.ID, advisorID, req.AllocatorID, source); err != nil {
			return err
		}

		result.LeadIDs = append(result.LeadIDs, cand.lead.ID)
		result.Assigned++
	}
	return nil
}

func (e *Engine) shuffled(candidates []candidate) []candidate {
	e.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates
}

func tag(leads []PoolLead, fresh bool) []candidate {
	out := make([]candidate, 0, len(leads))
	for _, lead := range leads {
		out = append(out, candidate{lead: lead, fresh: fresh})
	}
	return out
}

// tagByRecord derives provenance from the record itself for pulls that span
// both pools.
func tagByRecord(leads []PoolLead) []candidate {
	out := make([]candidate, 0, len(leads))
	for _, lead := range leads {
		out = append(out, candidate{lead: lead, fresh: !lead.IsUsed})
	}
	return out
}
