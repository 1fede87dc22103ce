package distribution

import (
	"context"
	"time"

	"salesops_backend/internal/assignments/domain"
	"salesops_backend/internal/assignments/repository"
	"salesops_backend/internal/events"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const returnReasonNightly = "nightly recycling"

// AssignmentSource is the assignment-side surface the recycler needs.
type AssignmentSource interface {
	ListActive(ctx context.Context) ([]repository.Assignment, error)
	Deactivate(ctx context.Context, ids []uuid.UUID, finalStatus domain.Status) (int64, error)
}

// LeadReturner sends leads back to their pools in bulk.
type LeadReturner interface {
	BulkReturnFresh(ctx context.Context, ids []uuid.UUID, reason string) (int64, error)
	BulkReturnReusable(ctx context.Context, ids []uuid.UUID, reason string) (int64, error)
}

// RecycleResult summarizes one recycling pass.
type RecycleResult struct {
	FreshReturned    int64
	ReusableReturned int64
}

// Recycler closes out the day: every live assignment is terminated and its
// lead returned to a pool. Untouched assignments return their lead fresh;
// anything managed returns it reusable.
type Recycler struct {
	assignments AssignmentSource
	leads       LeadReturner
	bus         events.Bus
	log         *logger.Logger
}

func NewRecycler(assignments AssignmentSource, leads LeadReturner, bus events.Bus, log *logger.Logger) *Recycler {
	return &Recycler{
		assignments: assignments,
		leads:       leads,
		bus:         bus,
		log:         log,
	}
}

// Run performs one recycling pass. The two partitions proceed independently:
// a failure returning one partition does not block the other, and a partition
// is only deactivated after its leads were returned, so a retry picks up
// exactly the assignments that are still open.
func (r *Recycler) Run(ctx context.Context) (RecycleResult, error) {
	started := time.Now()
	active, err := r.assignments.ListActive(ctx)
	if err != nil {
		return RecycleResult{}, err
	}
	if len(active) == 0 {
		r.log.JobEvent("recycler", "no active assignments")
		return RecycleResult{}, nil
	}

	var freshAssignments, reusableAssignments []uuid.UUID
	var freshLeads, reusableLeads []uuid.UUID
	for _, a := range active {
		if domain.ReturnsFresh(a.Status) {
			freshAssignments = append(freshAssignments, a.ID)
			freshLeads = append(freshLeads, a.LeadID)
		} else {
			reusableAssignments = append(reusableAssignments, a.ID)
			reusableLeads = append(reusableLeads, a.LeadID)
		}
	}

	var result RecycleResult
	var group errgroup.Group

	group.Go(func() error {
		n, err := r.recyclePartition(ctx, freshLeads, freshAssignments, true)
		result.FreshReturned = n
		return err
	})
	group.Go(func() error {
		n, err := r.recyclePartition(ctx, reusableLeads, reusableAssignments, false)
		result.ReusableReturned = n
		return err
	})

	runErr := group.Wait()

	r.log.JobEvent("recycler", "completed",
		"fresh_returned", result.FreshReturned,
		"reusable_returned", result.ReusableReturned,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if result.FreshReturned > 0 || result.ReusableReturned > 0 {
		r.bus.Publish(ctx, events.LeadsRecycled{
			BaseEvent:        events.NewBaseEvent(),
			FreshReturned:    result.FreshReturned,
			ReusableReturned: result.ReusableReturned,
		})
	}

	return result, runErr
}

func (r *Recycler) recyclePartition(ctx context.Context, leadIDs, assignmentIDs []uuid.UUID, fresh bool) (int64, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}

	var (
		returned int64
		err      error
	)
	if fresh {
		returned, err = r.leads.BulkReturnFresh(ctx, leadIDs, returnReasonNightly)
	} else {
		returned, err = r.leads.BulkReturnReusable(ctx, leadIDs, returnReasonNightly)
	}
	if err != nil {
		r.log.JobError("recycler", err)
		return 0, err
	}

	if _, err := r.assignments.Deactivate(ctx, assignmentIDs, domain.StatusReciclado); err != nil {
		r.log.JobError("recycler", err)
		return returned, err
	}

	return returned, nil
}
