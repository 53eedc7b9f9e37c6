package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
)

var columns = []string{
	"id", "start_value", "limit_value", "divisor1", "divisor2", "str1", "str2",
	"hits", "version", "tracking_state", "created_at", "updated_at", "processed_at",
}

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func testRequest() fizzbuzz.Request {
	return fizzbuzz.Request{Start: 1, Limit: 15, Divisor1: 3, Divisor2: 5, Str1: "Fizz", Str2: "Buzz"}
}

func TestFindByRequestNotFound(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := store.FindByRequest(context.Background(), testRequest())
	assert.ErrorIs(t, err, stats.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByRequestFound(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WithArgs(1, 15, 3, 5, "Fizz", "Buzz").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(7, 1, 15, 3, 5, "Fizz", "Buzz", 4, 5, "processed", now, now, now))

	rec, err := store.FindByRequest(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, 4, rec.Hits)
	assert.Equal(t, 5, rec.Version)
	assert.Equal(t, stats.StateProcessed, rec.State)
	assert.Equal(t, testRequest(), rec.Request)
	assert.False(t, rec.ProcessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, 1, 15, 3, 5, "Fizz", "Buzz", 0, 1, "pending", now, now, nil))

	rec, err := store.Create(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Hits)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, stats.StatePending, rec.State)
	assert.True(t, rec.ProcessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUniqueViolationReturnsWinner(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO fizzbuzz_requests").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(3, 1, 15, 3, 5, "Fizz", "Buzz", 1, 2, "pending", now, now, nil))

	rec, err := store.Create(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementProcessed(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec("UPDATE fizzbuzz_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := stats.Record{ID: 7, Request: testRequest(), Hits: 1, Version: 2, State: stats.StatePending}
	updated, err := store.IncrementProcessed(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Hits)
	assert.Equal(t, 3, updated.Version)
	assert.Equal(t, stats.StateProcessed, updated.State)
	assert.False(t, updated.ProcessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementProcessedVersionConflict(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec("UPDATE fizzbuzz_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := stats.Record{ID: 7, Request: testRequest(), Hits: 1, Version: 2}
	_, err := store.IncrementProcessed(context.Background(), rec)
	assert.ErrorIs(t, err, stats.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec("UPDATE fizzbuzz_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.MarkFailed(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedMissing(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec("UPDATE fizzbuzz_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.MarkFailed(context.Background(), 404), stats.ErrNotFound)
}

func TestFindStalePending(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	threshold := now.Add(-5 * time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, 1, 15, 3, 5, "Fizz", "Buzz", 0, 1, "pending", now.Add(-10*time.Minute), now, nil).
			AddRow(2, 1, 20, 3, 5, "Fizz", "Buzz", 0, 1, "pending", now.Add(-6*time.Minute), now, nil))

	records, err := store.FindStalePending(context.Background(), threshold)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, stats.StatePending, records[0].State)
}

func TestMostFrequentEmpty(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := store.MostFrequent(context.Background())
	assert.ErrorIs(t, err, stats.ErrNotFound)
}

func TestMostFrequent(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM fizzbuzz_requests").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(9, 1, 15, 3, 5, "Fizz", "Buzz", 42, 43, "processed", now, now, now))

	rec, err := store.MostFrequent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, rec.Hits)
}

func TestCreatePropagatesOtherErrors(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery("INSERT INTO fizzbuzz_requests").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Create(context.Background(), testRequest())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, stats.ErrNotFound)
}
