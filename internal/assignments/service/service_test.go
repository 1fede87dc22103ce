package service

import (
	"context"
	"testing"
	"time"

	"salesops_backend/internal/assignments/domain"
	"salesops_backend/internal/assignments/repository"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/httpkit"

	"github.com/google/uuid"
)

type fakeStore struct {
	assignments  map[uuid.UUID]repository.Assignment
	interactions int
}

func newFakeStore(items ...repository.Assignment) *fakeStore {
	s := &fakeStore{assignments: make(map[uuid.UUID]repository.Assignment)}
	for _, a := range items {
		s.assignments[a.ID] = a
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return repository.Assignment{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) ListByAdvisor(_ context.Context, advisorID uuid.UUID) ([]repository.Assignment, error) {
	out := make([]repository.Assignment, 0)
	for _, a := range s.assignments {
		if a.Active && a.AdvisorID == advisorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status) (repository.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok || !a.Active {
		return repository.Assignment{}, repository.ErrNotFound
	}
	a.Status = status
	s.assignments[id] = a
	return a, nil
}

func (s *fakeStore) Reschedule(_ context.Context, id uuid.UUID, status domain.Status, dueDate time.Time) (repository.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok || !a.Active {
		return repository.Assignment{}, repository.ErrNotFound
	}
	sub := domain.SubStatusReprogramado
	a.Status = status
	a.SubStatus = &sub
	a.DueDate = &dueDate
	s.assignments[id] = a
	return a, nil
}

func (s *fakeStore) AddInteraction(_ context.Context, _, _ uuid.UUID, _ domain.Status, _ string, _ uuid.UUID) error {
	s.interactions++
	return nil
}

type fakeLeadRecorder struct {
	lastStatus *string
	calls      int
}

func (f *fakeLeadRecorder) RecordInteraction(_ context.Context, _ uuid.UUID, status *string) error {
	f.lastStatus = status
	f.calls++
	return nil
}

func activeAssignment(advisorID uuid.UUID, status domain.Status) repository.Assignment {
	return repository.Assignment{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		AdvisorID: advisorID,
		Status:    status,
		Active:    true,
	}
}

func TestUpdateStatus(t *testing.T) {
	advisorID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name     string
		from     domain.Status
		to       string
		identity httpkit.Identity
		wantKind apperr.Kind
	}{
		{
			name:     "advisor moves own assignment",
			from:     domain.StatusPendiente,
			to:       string(domain.StatusContactado),
			identity: httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}),
		},
		{
			name:     "supervisor moves someone else's assignment",
			from:     domain.StatusEnGestion,
			to:       string(domain.StatusVenta),
			identity: httpkit.NewIdentity(otherID, []string{httpkit.RoleSupervisor}),
		},
		{
			name:     "other advisor is rejected",
			from:     domain.StatusPendiente,
			to:       string(domain.StatusContactado),
			identity: httpkit.NewIdentity(otherID, []string{httpkit.RoleAsesor}),
			wantKind: apperr.KindForbidden,
		},
		{
			name:     "unknown status is rejected",
			from:     domain.StatusPendiente,
			to:       "Inventado",
			identity: httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}),
			wantKind: apperr.KindValidation,
		},
		{
			name:     "terminal assignment cannot be moved",
			from:     domain.StatusReciclado,
			to:       string(domain.StatusContactado),
			identity: httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}),
			wantKind: apperr.KindConflict,
		},
		{
			name:     "cannot return to Pendiente",
			from:     domain.StatusEnGestion,
			to:       string(domain.StatusPendiente),
			identity: httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}),
			wantKind: apperr.KindConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := activeAssignment(advisorID, tc.from)
			store := newFakeStore(a)
			leads := &fakeLeadRecorder{}
			svc := New(store, leads)

			updated, err := svc.UpdateStatus(context.Background(), tc.identity, a.ID, tc.to, "nota")

			if tc.wantKind != apperr.KindUnknown {
				if err == nil {
					t.Fatalf("expected error of kind %v, got nil", tc.wantKind)
				}
				if got := apperr.GetKind(err); got != tc.wantKind {
					t.Fatalf("expected kind %v, got %v", tc.wantKind, got)
				}
				if store.interactions != 0 {
					t.Fatalf("expected no interaction recorded on failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != domain.Status(tc.to) {
				t.Fatalf("expected status %q, got %q", tc.to, updated.Status)
			}
			if store.interactions != 1 {
				t.Fatalf("expected one interaction, got %d", store.interactions)
			}
			if leads.calls != 1 {
				t.Fatalf("expected lead record touch, got %d", leads.calls)
			}
		})
	}
}

func TestLogInteractionPromotesPendiente(t *testing.T) {
	advisorID := uuid.New()
	a := activeAssignment(advisorID, domain.StatusPendiente)
	store := newFakeStore(a)
	leads := &fakeLeadRecorder{}
	svc := New(store, leads)

	updated, err := svc.LogInteraction(context.Background(), httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}), a.ID, "llamada inicial")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusEnGestion {
		t.Fatalf("expected promotion to En Gestión, got %q", updated.Status)
	}
	if leads.lastStatus == nil || *leads.lastStatus != "Llamado" {
		t.Fatalf("expected lead substate Llamado, got %v", leads.lastStatus)
	}
}

func TestLogInteractionKeepsManagedStatus(t *testing.T) {
	advisorID := uuid.New()
	a := activeAssignment(advisorID, domain.StatusContactado)
	store := newFakeStore(a)
	svc := New(store, &fakeLeadRecorder{})

	updated, err := svc.LogInteraction(context.Background(), httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}), a.ID, "seguimiento")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusContactado {
		t.Fatalf("expected status unchanged, got %q", updated.Status)
	}
}

func TestNoContestaMapsLeadSubstate(t *testing.T) {
	advisorID := uuid.New()
	a := activeAssignment(advisorID, domain.StatusEnGestion)
	store := newFakeStore(a)
	leads := &fakeLeadRecorder{}
	svc := New(store, leads)

	_, err := svc.UpdateStatus(context.Background(), httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}), a.ID, string(domain.StatusNoContesta), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leads.lastStatus == nil || *leads.lastStatus != "No contesta" {
		t.Fatalf("expected lead substate No contesta, got %v", leads.lastStatus)
	}
}

func TestReschedule(t *testing.T) {
	advisorID := uuid.New()
	a := activeAssignment(advisorID, domain.StatusPendiente)
	store := newFakeStore(a)
	svc := New(store, &fakeLeadRecorder{})

	due := time.Now().Add(48 * time.Hour)
	updated, err := svc.Reschedule(context.Background(), httpkit.NewIdentity(advisorID, []string{httpkit.RoleAsesor}), a.ID, due, "reintento")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusEnGestion {
		t.Fatalf("expected promotion to En Gestión, got %q", updated.Status)
	}
	if updated.SubStatus == nil || *updated.SubStatus != domain.SubStatusReprogramado {
		t.Fatalf("expected Reprogramado sub status, got %v", updated.SubStatus)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Fatalf("expected due date %v, got %v", due, updated.DueDate)
	}
}
