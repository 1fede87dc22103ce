// Package adapters wires bounded contexts together without letting their
// packages import each other directly.
package adapters

import (
	"context"
	"time"

	"salesops_backend/internal/distribution"
	leadsrepo "salesops_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// LeadPoolAdapter exposes the leads repository as the distribution engine's
// lead pool.
type LeadPoolAdapter struct {
	repo *leadsrepo.Repository
}

func NewLeadPoolAdapter(repo *leadsrepo.Repository) *LeadPoolAdapter {
	return &LeadPoolAdapter{repo: repo}
}

func (a *LeadPoolAdapter) QueryFresh(ctx context.Context, q distribution.PoolQuery) ([]distribution.PoolLead, error) {
	leads, err := a.repo.QueryFresh(ctx, poolFilter(q), q.Limit, q.Exclude)
	if err != nil {
		return nil, err
	}
	return toPoolLeads(leads), nil
}

func (a *LeadPoolAdapter) QueryReusable(ctx context.Context, q distribution.PoolQuery, staleBefore time.Time) ([]distribution.PoolLead, error) {
	leads, err := a.repo.QueryReusable(ctx, poolFilter(q), q.Limit, q.Exclude, staleBefore)
	if err != nil {
		return nil, err
	}
	return toPoolLeads(leads), nil
}

func (a *LeadPoolAdapter) QueryAvailable(ctx context.Context, q distribution.PoolQuery) ([]distribution.PoolLead, error) {
	leads, err := a.repo.QueryAvailable(ctx, poolFilter(q), q.Limit, q.Exclude)
	if err != nil {
		return nil, err
	}
	return toPoolLeads(leads), nil
}

func (a *LeadPoolAdapter) Claim(ctx context.Context, leadID, advisorID uuid.UUID, fresh bool) (bool, error) {
	return a.repo.Claim(ctx, leadID, advisorID, fresh)
}

func poolFilter(q distribution.PoolQuery) leadsrepo.PoolFilter {
	return leadsrepo.PoolFilter{
		ObraSocial: q.ObraSocial,
		MinAge:     q.MinAge,
		MaxAge:     q.MaxAge,
	}
}

func toPoolLeads(leads []leadsrepo.Lead) []distribution.PoolLead {
	out := make([]distribution.PoolLead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, distribution.PoolLead{
			ID:         lead.ID,
			ObraSocial: lead.ObraSocial,
			IsUsed:     lead.IsUsed,
		})
	}
	return out
}

// Compile-time check.
var _ distribution.LeadPool = (*LeadPoolAdapter)(nil)
