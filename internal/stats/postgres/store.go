// Package postgres implements the statistics store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
)

const uniqueViolation = "23505"

// Store implements stats.Store backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ stats.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type row struct {
	ID          int64        `db:"id"`
	Start       int          `db:"start_value"`
	Limit       int          `db:"limit_value"`
	Divisor1    int          `db:"divisor1"`
	Divisor2    int          `db:"divisor2"`
	Str1        string       `db:"str1"`
	Str2        string       `db:"str2"`
	Hits        int          `db:"hits"`
	Version     int          `db:"version"`
	State       string       `db:"tracking_state"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
}

func (r row) toRecord() stats.Record {
	rec := stats.Record{
		ID: r.ID,
		Request: fizzbuzz.Request{
			Start:    r.Start,
			Limit:    r.Limit,
			Divisor1: r.Divisor1,
			Divisor2: r.Divisor2,
			Str1:     r.Str1,
			Str2:     r.Str2,
		},
		Hits:      r.Hits,
		Version:   r.Version,
		State:     stats.TrackingState(r.State),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.ProcessedAt.Valid {
		rec.ProcessedAt = r.ProcessedAt.Time.UTC()
	}
	return rec
}

const selectColumns = `
	SELECT id, start_value, limit_value, divisor1, divisor2, str1, str2,
	       hits, version, tracking_state, created_at, updated_at, processed_at
	FROM fizzbuzz_requests
`

func (s *Store) FindByRequest(ctx context.Context, req fizzbuzz.Request) (stats.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, selectColumns+`
		WHERE start_value = $1 AND limit_value = $2 AND divisor1 = $3
		  AND divisor2 = $4 AND str1 = $5 AND str2 = $6
	`, req.Start, req.Limit, req.Divisor1, req.Divisor2, req.Str1, req.Str2)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, stats.ErrNotFound
	}
	if err != nil {
		return stats.Record{}, err
	}
	return r.toRecord(), nil
}

func (s *Store) Create(ctx context.Context, req fizzbuzz.Request) (stats.Record, error) {
	now := time.Now().UTC()

	var r row
	err := s.db.GetContext(ctx, &r, `
		INSERT INTO fizzbuzz_requests
			(start_value, limit_value, divisor1, divisor2, str1, str2,
			 hits, version, tracking_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 1, $7, $8, $8)
		RETURNING id, start_value, limit_value, divisor1, divisor2, str1, str2,
		          hits, version, tracking_state, created_at, updated_at, processed_at
	`, req.Start, req.Limit, req.Divisor1, req.Divisor2, req.Str1, req.Str2,
		string(stats.StatePending), now)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		// A concurrent writer inserted the same key first; their row wins.
		return s.FindByRequest(ctx, req)
	}
	if err != nil {
		return stats.Record{}, err
	}
	return r.toRecord(), nil
}

func (s *Store) Refresh(ctx context.Context, id int64) (stats.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, selectColumns+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, stats.ErrNotFound
	}
	if err != nil {
		return stats.Record{}, err
	}
	return r.toRecord(), nil
}

func (s *Store) IncrementProcessed(ctx context.Context, rec stats.Record) (stats.Record, error) {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE fizzbuzz_requests
		SET hits = $3, version = $4, tracking_state = $5,
		    processed_at = $6, updated_at = $6
		WHERE id = $1 AND version = $2
	`, rec.ID, rec.Version, rec.Hits+1, rec.Version+1, string(stats.StateProcessed), now)
	if err != nil {
		return stats.Record{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return stats.Record{}, stats.ErrVersionConflict
	}

	rec.Hits++
	rec.Version++
	rec.State = stats.StateProcessed
	rec.ProcessedAt = now
	rec.UpdatedAt = now
	return rec, nil
}

func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE fizzbuzz_requests
		SET tracking_state = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`, id, string(stats.StateFailed), now)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return stats.ErrNotFound
	}
	return nil
}

func (s *Store) FindStalePending(ctx context.Context, before time.Time) ([]stats.Record, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, selectColumns+`
		WHERE tracking_state = $1 AND created_at < $2
		ORDER BY created_at
	`, string(stats.StatePending), before.UTC())
	if err != nil {
		return nil, err
	}

	records := make([]stats.Record, len(rows))
	for i, r := range rows {
		records[i] = r.toRecord()
	}
	return records, nil
}

func (s *Store) MostFrequent(ctx context.Context) (stats.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, selectColumns+`
		ORDER BY hits DESC, id
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, stats.ErrNotFound
	}
	if err != nil {
		return stats.Record{}, err
	}
	return r.toRecord(), nil
}
