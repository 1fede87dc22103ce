package distribution

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRunNotFound = errors.New("distribution run not found")

// Run triggers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// RunRecord is a persisted distribution run with its per-destination outcome.
type RunRecord struct {
	ID             uuid.UUID
	ExecutedAt     time.Time
	Trigger        string
	TotalRequested int
	TotalAssigned  int
	Destinations   []DestinationRecord
}

// DestinationRecord is the jsonb row stored per destination.
type DestinationRecord struct {
	AdvisorID uuid.UUID `json:"advisorId"`
	Requested int       `json:"requested"`
	Assigned  int       `json:"assigned"`
	Deficit   int       `json:"deficit"`
	ExportKey string    `json:"exportKey,omitempty"`
}

// RunStore persists distribution runs for auditing.
type RunStore struct {
	pool *pgxpool.Pool
}

func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

func (s *RunStore) Save(ctx context.Context, rec RunRecord) error {
	destinations, err := json.Marshal(rec.Destinations)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO distribution_runs (id, trigger, total_requested, total_assigned, destinations)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.Trigger, rec.TotalRequested, rec.TotalAssigned, destinations)
	return err
}

func (s *RunStore) GetByID(ctx context.Context, id uuid.UUID) (RunRecord, error) {
	var (
		rec          RunRecord
		destinations []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, executed_at, trigger, total_requested, total_assigned, destinations
		FROM distribution_runs WHERE id = $1
	`, id).Scan(&rec.ID, &rec.ExecutedAt, &rec.Trigger, &rec.TotalRequested, &rec.TotalAssigned, &destinations)
	if errors.Is(err, pgx.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	if err := json.Unmarshal(destinations, &rec.Destinations); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, executed_at, trigger, total_requested, total_assigned, destinations
		FROM distribution_runs
		ORDER BY executed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]RunRecord, 0)
	for rows.Next() {
		var (
			rec          RunRecord
			destinations []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ExecutedAt, &rec.Trigger, &rec.TotalRequested, &rec.TotalAssigned, &destinations); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(destinations, &rec.Destinations); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
