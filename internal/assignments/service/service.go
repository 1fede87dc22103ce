// Package service implements assignment management workflows.
package service

import (
	"context"
	"errors"
	"time"

	"salesops_backend/internal/assignments/domain"
	"salesops_backend/internal/assignments/repository"
	leadsrepo "salesops_backend/internal/leads/repository"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/httpkit"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs from the assignments
// repository.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Assignment, error)
	ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]repository.Assignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (repository.Assignment, error)
	Reschedule(ctx context.Context, id uuid.UUID, status domain.Status, dueDate time.Time) (repository.Assignment, error)
	AddInteraction(ctx context.Context, leadID, assignmentID uuid.UUID, status domain.Status, note string, actorID uuid.UUID) error
}

// LeadRecorder stamps interaction state onto the lead record.
type LeadRecorder interface {
	RecordInteraction(ctx context.Context, id uuid.UUID, status *string) error
}

type Service struct {
	store Store
	leads LeadRecorder
}

func New(store Store, leads LeadRecorder) *Service {
	return &Service{store: store, leads: leads}
}

// ListMine returns the caller's live assignments.
func (s *Service) ListMine(ctx context.Context, identity httpkit.Identity) ([]repository.Assignment, error) {
	return s.store.ListByAdvisor(ctx, identity.UserID())
}

// GetByID returns an assignment the caller is allowed to see.
func (s *Service) GetByID(ctx context.Context, identity httpkit.Identity, id uuid.UUID) (repository.Assignment, error) {
	a, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Assignment{}, apperr.NotFound(err.Error())
	}
	if err != nil {
		return repository.Assignment{}, err
	}
	if !canAct(identity, a) {
		return repository.Assignment{}, apperr.Forbidden("assignment belongs to another advisor")
	}
	return a, nil
}

// UpdateStatus moves an assignment to a new managed status. Untouched
// assignments are promoted through En Gestión implicitly: any allowed target
// status already counts as a management act.
func (s *Service) UpdateStatus(ctx context.Context, identity httpkit.Identity, id uuid.UUID, rawStatus, note string) (repository.Assignment, error) {
	status, ok := domain.Parse(rawStatus)
	if !ok {
		return repository.Assignment{}, apperr.Validation("unknown status: " + rawStatus)
	}

	a, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return repository.Assignment{}, err
	}

	if !domain.CanTransition(a.Status, status) {
		return repository.Assignment{}, apperr.Conflict("cannot move assignment from " + string(a.Status) + " to " + string(status))
	}

	updated, err := s.store.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		// The recycler closed the assignment between read and write.
		return repository.Assignment{}, apperr.Conflict("assignment is no longer active")
	}
	if err != nil {
		return repository.Assignment{}, err
	}

	if err := s.recordInteraction(ctx, updated, status, note, identity.UserID()); err != nil {
		return repository.Assignment{}, err
	}

	return updated, nil
}

// LogInteraction appends a touch without necessarily changing the status. A
// Pendiente assignment is promoted to En Gestión on its first interaction.
func (s *Service) LogInteraction(ctx context.Context, identity httpkit.Identity, id uuid.UUID, note string) (repository.Assignment, error) {
	a, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return repository.Assignment{}, err
	}
	if domain.IsTerminal(a.Status) {
		return repository.Assignment{}, apperr.Conflict("assignment is no longer active")
	}

	if a.Status == domain.StatusPendiente {
		a, err = s.store.UpdateStatus(ctx, id, domain.StatusEnGestion)
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Assignment{}, apperr.Conflict("assignment is no longer active")
		}
		if err != nil {
			return repository.Assignment{}, err
		}
	}

	if err := s.recordInteraction(ctx, a, a.Status, note, identity.UserID()); err != nil {
		return repository.Assignment{}, err
	}

	return a, nil
}

// Reschedule sets a follow-up date and marks the assignment Reprogramado.
// Rescheduling counts as a management act, so a Pendiente assignment moves to
// En Gestión.
func (s *Service) Reschedule(ctx context.Context, identity httpkit.Identity, id uuid.UUID, dueDate time.Time, note string) (repository.Assignment, error) {
	a, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return repository.Assignment{}, err
	}
	if domain.IsTerminal(a.Status) {
		return repository.Assignment{}, apperr.Conflict("assignment is no longer active")
	}

	status := a.Status
	if status == domain.StatusPendiente {
		status = domain.StatusEnGestion
	}

	updated, err := s.store.Reschedule(ctx, id, status, dueDate)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Assignment{}, apperr.Conflict("assignment is no longer active")
	}
	if err != nil {
		return repository.Assignment{}, err
	}

	if err := s.recordInteraction(ctx, updated, status, note, identity.UserID()); err != nil {
		return repository.Assignment{}, err
	}

	return updated, nil
}

func (s *Service) recordInteraction(ctx context.Context, a repository.Assignment, status domain.Status, note string, actorID uuid.UUID) error {
	if err := s.store.AddInteraction(ctx, a.LeadID, a.ID, status, note, actorID); err != nil {
		return err
	}
	return s.leads.RecordInteraction(ctx, a.LeadID, leadSubstate(status))
}

// leadSubstate maps an assignment status to the interaction substate stamped
// on the lead record. These substates feed the reusable pool once stale.
func leadSubstate(status domain.Status) *string {
	var sub string
	switch status {
	case domain.StatusNoContesta:
		sub = leadsrepo.LeadStatusNoContesta
	default:
		sub = leadsrepo.LeadStatusLlamado
	}
	return &sub
}

// canAct allows the owning advisor plus supervisors and admins.
func canAct(identity httpkit.Identity, a repository.Assignment) bool {
	if identity.UserID() == a.AdvisorID {
		return true
	}
	return identity.HasRole(httpkit.RoleSupervisor) || identity.HasRole(httpkit.RoleAdmin)
}
