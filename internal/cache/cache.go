// Package cache stores computed sequences keyed by request fingerprint.
//
// Caching is best effort: a store failure on read degrades to a miss and a
// failure on write is logged and dropped. A response is never blocked by the
// cache.
package cache

import (
	"context"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
)

// SequenceCache is the caching contract used by the orchestrating service.
type SequenceCache interface {
	// Get returns the cached sequence and true on a hit. Any underlying
	// failure is reported as a miss.
	Get(ctx context.Context, req fizzbuzz.Request) ([]string, bool)

	// Set stores the sequence for the request, replacing any existing
	// entry. Failures are swallowed.
	Set(ctx context.Context, req fizzbuzz.Request, sequence []string)

	// Clear removes the entry for the request, if present.
	Clear(ctx context.Context, req fizzbuzz.Request)
}

const keyPrefix = "fizzbuzz:seq:"

// Key returns the cache key for a request.
func Key(req fizzbuzz.Request) string {
	return keyPrefix + req.Fingerprint()
}
