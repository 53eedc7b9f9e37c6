// Package memory provides an in-memory statistics store for tests and
// database-less development runs. It mirrors the optimistic-locking
// semantics of the PostgreSQL store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
)

// Store is an in-memory stats.Store.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]*stats.Record // fingerprint -> record

	// ErrorOnNextCall, when set, is returned by the next store operation
	// and then cleared. Used to exercise error paths in tests.
	ErrorOnNextCall error

	now func() time.Time
}

var _ stats.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:  1,
		records: make(map[string]*stats.Record),
		now:     time.Now,
	}
}

// SetClock replaces the store's time source. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) checkError() error {
	if s.ErrorOnNextCall != nil {
		err := s.ErrorOnNextCall
		s.ErrorOnNextCall = nil
		return err
	}
	return nil
}

func (s *Store) FindByRequest(_ context.Context, req fizzbuzz.Request) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return stats.Record{}, err
	}

	rec, ok := s.records[req.Fingerprint()]
	if !ok {
		return stats.Record{}, stats.ErrNotFound
	}
	return *rec, nil
}

func (s *Store) Create(_ context.Context, req fizzbuzz.Request) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return stats.Record{}, err
	}

	if existing, ok := s.records[req.Fingerprint()]; ok {
		return *existing, nil
	}

	now := s.now().UTC()
	rec := &stats.Record{
		ID:        s.nextID,
		Request:   req,
		Hits:      0,
		Version:   1,
		State:     stats.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.records[req.Fingerprint()] = rec
	return *rec, nil
}

func (s *Store) Refresh(_ context.Context, id int64) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return stats.Record{}, err
	}

	for _, rec := range s.records {
		if rec.ID == id {
			return *rec, nil
		}
	}
	return stats.Record{}, stats.ErrNotFound
}

func (s *Store) IncrementProcessed(_ context.Context, rec stats.Record) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return stats.Record{}, err
	}

	stored, ok := s.records[rec.Request.Fingerprint()]
	if !ok || stored.ID != rec.ID {
		return stats.Record{}, stats.ErrNotFound
	}
	if stored.Version != rec.Version {
		return stats.Record{}, stats.ErrVersionConflict
	}

	now := s.now().UTC()
	stored.Hits++
	stored.Version++
	stored.State = stats.StateProcessed
	stored.ProcessedAt = now
	stored.UpdatedAt = now
	return *stored, nil
}

func (s *Store) MarkFailed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}

	for _, rec := range s.records {
		if rec.ID == id {
			rec.State = stats.StateFailed
			rec.Version++
			rec.UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return stats.ErrNotFound
}

func (s *Store) FindStalePending(_ context.Context, before time.Time) ([]stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}

	var out []stats.Record
	for _, rec := range s.records {
		if rec.State == stats.StatePending && rec.CreatedAt.Before(before) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MostFrequent(_ context.Context) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return stats.Record{}, err
	}

	var best *stats.Record
	for _, rec := range s.records {
		if best == nil || rec.Hits > best.Hits || (rec.Hits == best.Hits && rec.ID < best.ID) {
			best = rec
		}
	}
	if best == nil {
		return stats.Record{}, stats.ErrNotFound
	}
	return *best, nil
}

// BumpVersion advances a record's version out of band, simulating a
// concurrent writer. Test helper.
func (s *Store) BumpVersion(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			rec.Version++
			return
		}
	}
}
