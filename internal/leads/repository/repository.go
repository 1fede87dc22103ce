package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrDuplicateTaxID = errors.New("a lead with this tax id already exists")
)

// Lead status values. Asignado applies while a fresh lead is out with an
// advisor; No contesta and Llamado are interaction substates that feed the
// reusable pool once stale.
const (
	LeadStatusPendiente    = "Pendiente"
	LeadStatusAsignado     = "Asignado"
	LeadStatusReutilizable = "Reutilizable"
	LeadStatusFallido      = "Fallido"
	LeadStatusNoContesta   = "No contesta"
	LeadStatusLlamado      = "Llamado"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
	FullName        string
	TaxID           string
	Phones          []string
	Locality        string
	ObraSocial      string
	Age             *int
	SourceFile      *string
	BatchID         *uuid.UUID
	Active          bool
	Exported        bool
	IsUsed          bool
	Status          string
	AssignedTo      *uuid.UUID
	AssignedAt      *time.Time
	LastInteraction *time.Time
	ReturnedAt      *time.Time
	ReturnedReason  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	FullName   string
	TaxID      string
	Phones     []string
	Locality   string
	ObraSocial string
	Age        *int
	SourceFile *string
	BatchID    *uuid.UUID
}

const leadColumns = `id, full_name, tax_id, phones, locality, obra_social, age, source_file, batch_id,
		active, exported, is_used, status, assigned_to, assigned_at, last_interaction,
		returned_at, returned_reason, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.FullName, &lead.TaxID, &lead.Phones, &lead.Locality, &lead.ObraSocial,
		&lead.Age, &lead.SourceFile, &lead.BatchID,
		&lead.Active, &lead.Exported, &lead.IsUsed, &lead.Status, &lead.AssignedTo, &lead.AssignedAt,
		&lead.LastInteraction, &lead.ReturnedAt, &lead.ReturnedReason, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (full_name, tax_id, phones, locality, obra_social, age, source_file, batch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		params.FullName, params.TaxID, params.Phones, params.Locality, params.ObraSocial,
		params.Age, params.SourceFile, params.BatchID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Lead{}, ErrDuplicateTaxID
		}
		return Lead{}, err
	}

	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 AND active
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type ListFilter struct {
	Status     string
	ObraSocial string
	AssignedTo *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Lead, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE active
			AND ($1 = '' OR status = $1)
			AND ($2 = '' OR obra_social = $2)
			AND ($3::uuid IS NULL OR assigned_to = $3)
			AND ($4 = '' OR full_name ILIKE '%' || $4 || '%' OR tax_id = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`, filter.Status, filter.ObraSocial, filter.AssignedTo, filter.Search, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// ListByIDs returns the given leads in no particular order.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Lead, error) {
	if len(ids) == 0 {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

type UpdateLeadParams struct {
	FullName   string
	Phones     []string
	Locality   string
	ObraSocial string
	Age        *int
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET full_name = $2, phones = $3, locality = $4, obra_social = $5, age = $6, updated_at = now()
		WHERE id = $1 AND active
		RETURNING `+leadColumns,
		id, params.FullName, params.Phones, params.Locality, params.ObraSocial, params.Age,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// SoftDelete deactivates the lead. The tax id becomes reusable by a future
// active record.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET active = false, updated_at = now() WHERE id = $1 AND active
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordInteraction stamps the lead's last interaction time and optionally
// moves its status to an interaction substate.
func (r *Repository) RecordInteraction(ctx context.Context, id uuid.UUID, status *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET last_interaction = now(),
			status = COALESCE($2, status),
			updated_at = now()
		WHERE id = $1 AND active
	`, id, status)
	return err
}

type Interaction struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	AssignmentID *uuid.UUID
	Status       string
	Note         string
	ActorID      *uuid.UUID
	CreatedAt    time.Time
}

// ListInteractions returns the append-only interaction history of a lead,
// oldest first.
func (r *Repository) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, assignment_id, status, note, actor_id, created_at
		FROM interactions
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		var item Interaction
		if err := rows.Scan(&item.ID, &item.LeadID, &item.AssignmentID, &item.Status, &item.Note, &item.ActorID, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
