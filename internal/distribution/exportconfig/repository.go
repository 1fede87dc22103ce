package exportconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoActiveConfig = errors.New("no active distribution config")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `id, send_type, scheduled_time, settings, cancellation_type, skip_date,
			last_executed, active, created_at, updated_at`

func scanConfig(row pgx.Row) (Config, error) {
	var (
		cfg      Config
		settings []byte
	)
	err := row.Scan(
		&cfg.ID, &cfg.SendType, &cfg.ScheduledTime, &settings, &cfg.CancellationType,
		&cfg.SkipDate, &cfg.LastExecuted, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(settings, &cfg.Settings); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GetActive returns the single active policy.
func (r *Repository) GetActive(ctx context.Context) (Config, error) {
	cfg, err := scanConfig(r.pool.QueryRow(ctx, `
		SELECT `+configColumns+` FROM export_configs WHERE active
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNoActiveConfig
	}
	return cfg, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Config, error) {
	cfg, err := scanConfig(r.pool.QueryRow(ctx, `
		SELECT `+configColumns+` FROM export_configs WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNoActiveConfig
	}
	return cfg, err
}

func (r *Repository) List(ctx context.Context) ([]Config, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+configColumns+` FROM export_configs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cfg)
	}
	return items, rows.Err()
}

// Create inserts a new policy. Activating it deactivates any previous active
// policy in the same transaction, honoring the single-active index.
func (r *Repository) Create(ctx context.Context, cfg Config) (Config, error) {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return Config{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Config{}, err
	}
	defer tx.Rollback(ctx)

	if cfg.Active {
		if _, err := tx.Exec(ctx, `UPDATE export_configs SET active = false, updated_at = now() WHERE active`); err != nil {
			return Config{}, err
		}
	}

	created, err := scanConfig(tx.QueryRow(ctx, `
		INSERT INTO export_configs (send_type, scheduled_time, settings, cancellation_type, skip_date, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+configColumns,
		cfg.SendType, cfg.ScheduledTime, settings, cfg.CancellationType, cfg.SkipDate, cfg.Active,
	))
	if err != nil {
		return Config{}, err
	}

	return created, tx.Commit(ctx)
}

// Update replaces a policy's schedule, settings and cancellation state.
func (r *Repository) Update(ctx context.Context, cfg Config) (Config, error) {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return Config{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Config{}, err
	}
	defer tx.Rollback(ctx)

	if cfg.Active {
		if _, err := tx.Exec(ctx, `UPDATE export_configs SET active = false, updated_at = now() WHERE active AND id <> $1`, cfg.ID); err != nil {
			return Config{}, err
		}
	}

	updated, err := scanConfig(tx.QueryRow(ctx, `
		UPDATE export_configs
		SET send_type = $2, scheduled_time = $3, settings = $4, cancellation_type = $5,
			skip_date = $6, active = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+configColumns,
		cfg.ID, cfg.SendType, cfg.ScheduledTime, settings, cfg.CancellationType, cfg.SkipDate, cfg.Active,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNoActiveConfig
	}
	if err != nil {
		return Config{}, err
	}

	return updated, tx.Commit(ctx)
}

// MarkExecuted stamps a successful run.
func (r *Repository) MarkExecuted(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_configs SET last_executed = $2, updated_at = now() WHERE id = $1
	`, id, at)
	return err
}

// ClearTodayCancellation resets a consumed one-day cancellation so the next
// day's run proceeds normally.
func (r *Repository) ClearTodayCancellation(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE export_configs
		SET cancellation_type = $2, skip_date = NULL, updated_at = now()
		WHERE id = $1 AND cancellation_type = $3
	`, id, CancellationNone, CancellationToday)
	return err
}
