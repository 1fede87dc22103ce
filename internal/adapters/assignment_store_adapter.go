package adapters

import (
	"context"

	assignrepo "salesops_backend/internal/assignments/repository"
	"salesops_backend/internal/distribution"

	"github.com/google/uuid"
)

// AssignmentStoreAdapter lets the distribution engine open assignments.
type AssignmentStoreAdapter struct {
	repo *assignrepo.Repository
}

func NewAssignmentStoreAdapter(repo *assignrepo.Repository) *AssignmentStoreAdapter {
	return &AssignmentStoreAdapter{repo: repo}
}

func (a *AssignmentStoreAdapter) Create(ctx context.Context, leadID, advisorID uuid.UUID, allocatorID *uuid.UUID, sourceType string) (uuid.UUID, error) {
	created, err := a.repo.Create(ctx, assignrepo.CreateParams{
		LeadID:      leadID,
		AdvisorID:   advisorID,
		AllocatorID: allocatorID,
		SourceType:  sourceType,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// Compile-time check.
var _ distribution.AssignmentStore = (*AssignmentStoreAdapter)(nil)
