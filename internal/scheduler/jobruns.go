package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRunStore persists per-job once-a-day guards so they survive restarts.
type JobRunStore struct {
	pool *pgxpool.Pool
}

func NewJobRunStore(pool *pgxpool.Pool) *JobRunStore {
	return &JobRunStore{pool: pool}
}

// AlreadyRan reports whether the job already ran on the given calendar day.
func (s *JobRunStore) AlreadyRan(ctx context.Context, job string, day time.Time) (bool, error) {
	var lastRun time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT last_run_date FROM job_runs WHERE job_name = $1
	`, job).Scan(&lastRun)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	y1, m1, d1 := lastRun.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}

// MarkRan stamps the job's last run day.
func (s *JobRunStore) MarkRan(ctx context.Context, job string, day time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_runs (job_name, last_run_date)
		VALUES ($1, $2)
		ON CONFLICT (job_name) DO UPDATE SET last_run_date = $2, updated_at = now()
	`, job, day)
	return err
}
