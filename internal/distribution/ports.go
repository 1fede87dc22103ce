// Package distribution implements the daily lead batch: pulling candidates
// from the pools, splitting quotas per destination, claiming leads and
// opening assignments.
package distribution

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source types recorded on assignments, naming the pool a lead came from.
const (
	SourceFresh    = "fresh"
	SourceReusable = "reusable"
)

// PoolLead is the engine's view of a distributable lead.
type PoolLead struct {
	ID         uuid.UUID
	ObraSocial string
	IsUsed     bool
}

// PoolQuery narrows a pool pull.
type PoolQuery struct {
	ObraSocial string
	MinAge     *int
	MaxAge     *int
	Limit      int
	Exclude    []uuid.UUID
}

// LeadPool is the lead-side persistence surface the engine needs.
type LeadPool interface {
	// QueryFresh returns never-consumed candidates.
	QueryFresh(ctx context.Context, q PoolQuery) ([]PoolLead, error)
	// QueryReusable returns re-attemptable candidates, oldest interaction first.
	QueryReusable(ctx context.Context, q PoolQuery, staleBefore time.Time) ([]PoolLead, error)
	// QueryAvailable returns candidates regardless of pool.
	QueryAvailable(ctx context.Context, q PoolQuery) ([]PoolLead, error)
	// Claim hands a lead to an advisor if still unassigned.
	Claim(ctx context.Context, leadID, advisorID uuid.UUID, fresh bool) (bool, error)
}

// AssignmentStore opens assignments for claimed leads.
type AssignmentStore interface {
	Create(ctx context.Context, leadID, advisorID uuid.UUID, allocatorID *uuid.UUID, sourceType string) (uuid.UUID, error)
}
