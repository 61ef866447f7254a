package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"sagemaker-client/internal/models"
)

// ErrWatchNotFound is returned when no watch exists for a job name.
var ErrWatchNotFound = errors.New("watch not found")

// Store persists job watches and their observed status transitions.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a pooled connection to Postgres and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS job_watches (
	id TEXT PRIMARY KEY,
	job_name TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	tenant TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL,
	last_status TEXT NOT NULL DEFAULT '',
	failures INT NOT NULL DEFAULT 0,
	polls INT NOT NULL DEFAULT 0,
	next_poll_at TIMESTAMPTZ NOT NULL,
	last_error TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	settled_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_job_watches_state ON job_watches (state);

CREATE TABLE IF NOT EXISTS watch_transitions (
	id BIGSERIAL PRIMARY KEY,
	job_name TEXT NOT NULL,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_watch_transitions_job ON watch_transitions (job_name, recorded_at);
`

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CreateWatch inserts a watch row for a job. Registering the same job name
// twice returns the existing watch unchanged.
func (s *Store) CreateWatch(ctx context.Context, jobName, kind, tenant string, nextPoll time.Time) (models.JobWatch, bool, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO job_watches (id, job_name, kind, tenant, state, next_poll_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (job_name) DO NOTHING
	`, id, jobName, kind, tenant, models.WatchActive, nextPoll, now)
	if err != nil {
		return models.JobWatch{}, false, fmt.Errorf("insert watch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetWatch(ctx, jobName)
		if err != nil {
			return models.JobWatch{}, false, err
		}
		return existing, true, nil
	}
	return models.JobWatch{
		ID:         id,
		JobName:    jobName,
		Kind:       kind,
		Tenant:     tenant,
		State:      models.WatchActive,
		NextPollAt: nextPoll,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, false, nil
}

// GetWatch fetches a watch by job name.
func (s *Store) GetWatch(ctx context.Context, jobName string) (models.JobWatch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, job_name, kind, tenant, state, last_status, failures, polls, next_poll_at, last_error, created_at, updated_at, settled_at
		FROM job_watches WHERE job_name = $1
	`, jobName)

	var w models.JobWatch
	var lastErr pgtype.Text
	var settled pgtype.Timestamptz

	err := row.Scan(&w.ID, &w.JobName, &w.Kind, &w.Tenant, &w.State, &w.LastStatus,
		&w.Failures, &w.Polls, &w.NextPollAt, &lastErr, &w.CreatedAt, &w.UpdatedAt, &settled)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.JobWatch{}, fmt.Errorf("%w: %s", ErrWatchNotFound, jobName)
	}
	if err != nil {
		return models.JobWatch{}, fmt.Errorf("scan watch: %w", err)
	}
	if lastErr.Valid {
		w.LastError = &lastErr.String
	}
	if settled.Valid {
		t := settled.Time
		w.SettledAt = &t
	}
	return w, nil
}

// RecordPoll updates the watch after a successful describe.
func (s *Store) RecordPoll(ctx context.Context, jobName, lastStatus string, nextPoll time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE job_watches
		SET last_status = $2, next_poll_at = $3, polls = polls + 1, failures = 0, last_error = NULL, updated_at = NOW()
		WHERE job_name = $1
	`, jobName, lastStatus, nextPoll)
	return err
}

// RecordFailure bumps the failure counter after a describe error and returns
// the new count.
func (s *Store) RecordFailure(ctx context.Context, jobName, describeErr string, nextPoll time.Time) (int, error) {
	var failures int
	err := s.pool.QueryRow(ctx, `
		UPDATE job_watches
		SET failures = failures + 1, last_error = $2, next_poll_at = $3, updated_at = NOW()
		WHERE job_name = $1
		RETURNING failures
	`, jobName, describeErr, nextPoll).Scan(&failures)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrWatchNotFound, jobName)
	}
	return failures, err
}

// MarkSettled moves a watch into a terminal state.
func (s *Store) MarkSettled(ctx context.Context, jobName, state, lastStatus string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE job_watches
		SET state = $2, last_status = $3, settled_at = NOW(), updated_at = NOW()
		WHERE job_name = $1
	`, jobName, state, lastStatus)
	return err
}

// CancelWatch removes an active watch at the operator's request. It reports
// whether a row changed, so callers can distinguish already-settled watches.
func (s *Store) CancelWatch(ctx context.Context, jobName string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE job_watches
		SET state = $2, settled_at = NOW(), updated_at = NOW()
		WHERE job_name = $1 AND state = $3
	`, jobName, models.WatchCancelled, models.WatchActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkLost abandons a watch after repeated describe failures.
func (s *Store) MarkLost(ctx context.Context, jobName, lastError string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE job_watches
		SET state = $2, last_error = $3, settled_at = NOW(), updated_at = NOW()
		WHERE job_name = $1
	`, jobName, models.WatchLost, lastError)
	return err
}

// AppendTransition records one observed status change.
func (s *Store) AppendTransition(ctx context.Context, t models.Transition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_transitions (job_name, from_status, to_status, detail, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.JobName, t.From, t.To, t.Detail, t.Recorded)
	return err
}

// ListTransitions returns a watch's transitions in observation order.
func (s *Store) ListTransitions(ctx context.Context, jobName string) ([]models.Transition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_name, from_status, to_status, detail, recorded_at
		FROM watch_transitions WHERE job_name = $1
		ORDER BY id
	`, jobName)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []models.Transition
	for rows.Next() {
		var t models.Transition
		if err := rows.Scan(&t.JobName, &t.From, &t.To, &t.Detail, &t.Recorded); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ActiveWatches returns the number of watches still polling.
func (s *Store) ActiveWatches(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM job_watches WHERE state = $1
	`, models.WatchActive).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active watches: %w", err)
	}
	return n, nil
}
