// Package repository persists lead assignments.
package repository

import (
	"context"
	"errors"
	"time"

	"salesops_backend/internal/assignments/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("assignment not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Assignment struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	AdvisorID   uuid.UUID
	AllocatorID *uuid.UUID
	Status      domain.Status
	SubStatus   *string
	DueDate     *time.Time
	SourceType  string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateParams struct {
	LeadID      uuid.UUID
	AdvisorID   uuid.UUID
	AllocatorID *uuid.UUID
	SourceType  string
}

const assignmentColumns = `id, lead_id, advisor_id, allocator_id, status, sub_status, due_date,
			source_type, active, created_at, updated_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.LeadID, &a.AdvisorID, &a.AllocatorID, &a.Status, &a.SubStatus, &a.DueDate,
		&a.SourceType, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create opens a new active assignment in the initial Pendiente state. The
// partial unique index on lead_id rejects a second live assignment for the
// same lead.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		INSERT INTO assignments (lead_id, advisor_id, allocator_id, source_type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+assignmentColumns,
		params.LeadID, params.AdvisorID, params.AllocatorID, params.SourceType,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// ListActive returns every live assignment. Used by the recycler to collect
// the day's leftovers.
func (r *Repository) ListActive(ctx context.Context) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+` FROM assignments WHERE active ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// ListByAdvisor returns the advisor's live assignments, newest first.
func (r *Repository) ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE active AND advisor_id = $1
		ORDER BY created_at DESC
	`, advisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// UpdateStatus moves a live assignment to a new status. The active predicate
// keeps user writes from racing the recycler: once the recycler deactivates
// the row, this update matches nothing.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		UPDATE assignments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND active
		RETURNING `+assignmentColumns,
		id, status,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// Reschedule stamps a due date and the Reprogramado sub status.
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, status domain.Status, dueDate time.Time) (Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		UPDATE assignments
		SET status = $2, sub_status = $3, due_date = $4, updated_at = now()
		WHERE id = $1 AND active
		RETURNING `+assignmentColumns,
		id, status, domain.SubStatusReprogramado, dueDate,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// Deactivate closes the given assignments with a final status. Used by the
// recycler after the leads have been returned to their pools.
func (r *Repository) Deactivate(ctx context.Context, ids []uuid.UUID, finalStatus domain.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments
		SET active = false, status = $2, updated_at = now()
		WHERE id = ANY($1) AND active
	`, ids, finalStatus)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AddInteraction appends to the lead's interaction history.
func (r *Repository) AddInteraction(ctx context.Context, leadID, assignmentID uuid.UUID, status domain.Status, note string, actorID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interactions (lead_id, assignment_id, status, note, actor_id)
		VALUES ($1, $2, $3, $4, $5)
	`, leadID, assignmentID, status, note, actorID)
	return err
}

func collectAssignments(rows pgx.Rows) ([]Assignment, error) {
	items := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
