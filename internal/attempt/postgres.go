package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the DDL for the attempts table, applied by [PostgresStore.Migrate].
const Schema = `
CREATE TABLE IF NOT EXISTS pronunciation_attempts (
    id                     UUID PRIMARY KEY,
    user_id                TEXT NOT NULL,
    expected               TEXT NOT NULL,
    transcript             TEXT NOT NULL DEFAULT '',
    audio_name             TEXT NOT NULL DEFAULT '',
    transcription_provider TEXT NOT NULL DEFAULT '',
    score                  DOUBLE PRECISION NOT NULL,
    method                 TEXT NOT NULL,
    result                 JSONB NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_pronunciation_attempts_user
    ON pronunciation_attempts(user_id, created_at DESC);
`

// DB is the subset of pgx used by [PostgresStore]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore is a [Store] backed by PostgreSQL. The full scoring result is
// kept as JSONB next to the score and method columns used for reporting.
type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore returns a store using db. Call [PostgresStore.Migrate]
// before the first query.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the attempts table and index if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("attempt: migrate: %w", err)
	}
	return nil
}

// Record implements [Store].
func (s *PostgresStore) Record(ctx context.Context, a *Attempt) error {
	if err := a.Validate(); err != nil {
		return err
	}
	resultJSON, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("attempt: marshal result: %w", err)
	}
	a.prepare(time.Now().Truncate(time.Microsecond))

	const query = `
		INSERT INTO pronunciation_attempts (
			id, user_id, expected, transcript, audio_name,
			transcription_provider, score, method, result, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err = s.db.Exec(ctx, query,
		a.ID, a.UserID, a.Expected, a.Transcript, a.AudioName,
		a.TranscriptionProvider, a.Result.Score, a.Result.Method, resultJSON, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("attempt: record: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, user_id, expected, transcript, audio_name,
	       transcription_provider, result, created_at
	FROM pronunciation_attempts`

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	row := s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attempt: get %s: %w", id, err)
	}
	return a, nil
}

// ListByUser implements [Store].
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]Attempt, error) {
	rows, err := s.db.Query(ctx,
		selectColumns+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("attempt: list: %w", err)
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("attempt: list scan: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attempt: list: %w", err)
	}
	return out, nil
}

// Ping implements [Store].
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanAttempt(row pgx.Row) (*Attempt, error) {
	var (
		a          Attempt
		resultJSON []byte
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Expected, &a.Transcript, &a.AudioName,
		&a.TranscriptionProvider, &resultJSON, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &a, nil
}
