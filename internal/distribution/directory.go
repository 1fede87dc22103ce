package distribution

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAdvisorNotFound = errors.New("advisor not found")

// Advisor is a sales agent eligible to receive leads.
type Advisor struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Directory reads the advisor roster.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

const advisorColumns = `id, full_name, email, role, active, created_at, updated_at`

func scanAdvisor(row pgx.Row) (Advisor, error) {
	var a Advisor
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (d *Directory) GetByID(ctx context.Context, id uuid.UUID) (Advisor, error) {
	a, err := scanAdvisor(d.pool.QueryRow(ctx, `
		SELECT `+advisorColumns+` FROM advisors WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Advisor{}, ErrAdvisorNotFound
	}
	return a, err
}

// ListActive returns the advisors currently eligible for distribution.
func (d *Directory) ListActive(ctx context.Context) ([]Advisor, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+advisorColumns+` FROM advisors WHERE active ORDER BY full_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Advisor, 0)
	for rows.Next() {
		a, err := scanAdvisor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
