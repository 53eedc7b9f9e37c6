// Package stats defines the request statistics records and the store
// contract used by the tracking consumer and the reconciliation sweep.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
)

// TrackingState is the lifecycle flag on a statistics record.
type TrackingState string

const (
	// StatePending marks a record whose tracking has not completed.
	StatePending TrackingState = "pending"
	// StateProcessed marks successfully tracked records. Terminal.
	StateProcessed TrackingState = "processed"
	// StateFailed marks records reconciliation gave up on. Terminal.
	StateFailed TrackingState = "failed"
)

// Store errors.
var (
	// ErrNotFound reports that no record exists for the key.
	ErrNotFound = errors.New("stat record not found")
	// ErrVersionConflict reports that an optimistic-lock update lost the
	// race against a concurrent writer.
	ErrVersionConflict = errors.New("stat record version conflict")
)

// Record is one persisted statistics row. The six request fields form the
// unique key; Version guards concurrent increments.
type Record struct {
	ID          int64
	Request     fizzbuzz.Request
	Hits        int
	Version     int
	State       TrackingState
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt time.Time // zero when never processed
}

// Store is the persistence contract for statistics records. All mutation
// goes through the version-checked update path.
type Store interface {
	// FindByRequest returns the record keyed by the request fields, or
	// ErrNotFound.
	FindByRequest(ctx context.Context, req fizzbuzz.Request) (Record, error)

	// Create inserts a fresh pending record with zero hits and version 1.
	// If a concurrent writer inserted the same key first, the winner's row
	// is returned instead of an error.
	Create(ctx context.Context, req fizzbuzz.Request) (Record, error)

	// Refresh re-reads a record by id, or returns ErrNotFound.
	Refresh(ctx context.Context, id int64) (Record, error)

	// IncrementProcessed applies hits+1, state=processed, processed_at=now
	// and version+1, guarded by the record's current version. Returns
	// ErrVersionConflict when the row moved under us.
	IncrementProcessed(ctx context.Context, rec Record) (Record, error)

	// MarkFailed transitions a record to the terminal failed state.
	MarkFailed(ctx context.Context, id int64) error

	// FindStalePending lists pending records created before the threshold.
	FindStalePending(ctx context.Context, before time.Time) ([]Record, error)

	// MostFrequent returns the record with the highest hit count, or
	// ErrNotFound when nothing has been tracked yet.
	MostFrequent(ctx context.Context) (Record, error)
}

// FindOrCreate looks a record up by request key, creating a pending record
// when none exists.
func FindOrCreate(ctx context.Context, store Store, req fizzbuzz.Request) (Record, error) {
	rec, err := store.FindByRequest(ctx, req)
	if errors.Is(err, ErrNotFound) {
		return store.Create(ctx, req)
	}
	return rec, err
}
