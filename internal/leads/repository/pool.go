package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PoolFilter narrows pool queries to a category and age band. Zero values
// leave the dimension unconstrained.
type PoolFilter struct {
	ObraSocial string
	MinAge     *int
	MaxAge     *int
}

// QueryFresh returns never-consumed, unassigned leads, newest upload first.
// Returning fewer than limit rows is normal and not an error.
func (r *Repository) QueryFresh(ctx context.Context, filter PoolFilter, limit int, exclude []uuid.UUID) ([]Lead, error) {
	if limit <= 0 {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE active AND NOT is_used AND assigned_to IS NULL
			AND NOT (id = ANY($1))
			AND ($2 = '' OR obra_social = $2)
			AND ($3::int IS NULL OR age >= $3)
			AND ($4::int IS NULL OR age <= $4)
		ORDER BY created_at DESC
		LIMIT $5
	`, exclusion(exclude), filter.ObraSocial, filter.MinAge, filter.MaxAge, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// QueryReusable returns previously-touched leads eligible for re-attempt:
// explicitly marked Reutilizable, or in an interaction substate with a last
// interaction older than staleBefore. Oldest interaction first, so the leads
// that have waited longest go out first.
func (r *Repository) QueryReusable(ctx context.Context, filter PoolFilter, limit int, exclude []uuid.UUID, staleBefore time.Time) ([]Lead, error) {
	if limit <= 0 {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE active AND assigned_to IS NULL
			AND NOT (id = ANY($1))
			AND ($2 = '' OR obra_social = $2)
			AND ($3::int IS NULL OR age >= $3)
			AND ($4::int IS NULL OR age <= $4)
			AND (
				status = $5
				OR (status = ANY($6) AND last_interaction < $7)
			)
		ORDER BY last_interaction ASC NULLS FIRST
		LIMIT $8
	`, exclusion(exclude), filter.ObraSocial, filter.MinAge, filter.MaxAge,
		LeadStatusReutilizable, []string{LeadStatusNoContesta, LeadStatusLlamado}, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// QueryAvailable returns unassigned active leads regardless of pool, newest
// first. Used for category-quota pulls where the fresh/reusable split does not
// apply.
func (r *Repository) QueryAvailable(ctx context.Context, filter PoolFilter, limit int, exclude []uuid.UUID) ([]Lead, error) {
	if limit <= 0 {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE active AND assigned_to IS NULL
			AND NOT (id = ANY($1))
			AND ($2 = '' OR obra_social = $2)
			AND ($3::int IS NULL OR age >= $3)
			AND ($4::int IS NULL OR age <= $4)
		ORDER BY created_at DESC
		LIMIT $5
	`, exclusion(exclude), filter.ObraSocial, filter.MinAge, filter.MaxAge, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// Claim conditionally hands a lead to an advisor. The WHERE clause is the
// compare-and-set that prevents a concurrent run from claiming the same lead:
// only an unassigned row is updated. Fresh claims move the lead to Asignado;
// reusable claims keep the current status since its category signal still
// matters for reporting.
func (r *Repository) Claim(ctx context.Context, id, advisorID uuid.UUID, fresh bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET exported = true,
			is_used = true,
			assigned_to = $2,
			assigned_at = now(),
			status = CASE WHEN $3 THEN $4 ELSE status END,
			updated_at = now()
		WHERE id = $1 AND active AND assigned_to IS NULL
	`, id, advisorID, fresh, LeadStatusAsignado)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// BulkReturnFresh sends unmanaged leads back to the fresh pool: never used,
// never exported, ready for first assignment again.
func (r *Repository) BulkReturnFresh(ctx context.Context, ids []uuid.UUID, reason string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3,
			is_used = false,
			exported = false,
			assigned_to = NULL,
			assigned_at = NULL,
			returned_at = now(),
			returned_reason = $2,
			updated_at = now()
		WHERE id = ANY($1)
	`, ids, reason, LeadStatusPendiente)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// BulkReturnReusable sends managed leads back to the reusable pool.
func (r *Repository) BulkReturnReusable(ctx context.Context, ids []uuid.UUID, reason string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3,
			assigned_to = NULL,
			assigned_at = NULL,
			returned_at = now(),
			returned_reason = $2,
			updated_at = now()
		WHERE id = ANY($1)
	`, ids, reason, LeadStatusReutilizable)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// exclusion normalizes a nil exclude slice so the SQL ANY comparison sees an
// empty array instead of NULL.
func exclusion(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
