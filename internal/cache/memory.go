package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
)

type memoryEntry struct {
	sequence  []string
	expiresAt time.Time
}

// MemoryCache is an in-process sequence cache used in tests and in
// deployments without Redis.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ SequenceCache = (*MemoryCache)(nil)

// NewMemoryCache constructs an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, req fizzbuzz.Request) ([]string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[Key(req)]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}

	out := make([]string, len(entry.sequence))
	copy(out, entry.sequence)
	return out, true
}

func (c *MemoryCache) Set(_ context.Context, req fizzbuzz.Request, sequence []string) {
	stored := make([]string, len(sequence))
	copy(stored, sequence)

	c.mu.Lock()
	c.entries[Key(req)] = memoryEntry{sequence: stored, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context, req fizzbuzz.Request) {
	c.mu.Lock()
	delete(c.entries, Key(req))
	c.mu.Unlock()
}
