// Package sequence wires generation, caching and async tracking into the
// single operation the HTTP layer calls.
package sequence

import (
	"context"

	"github.com/fizzlabs/fizzbuzz-service/internal/cache"
	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/metrics"
	"github.com/fizzlabs/fizzbuzz-service/internal/queue"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// Service produces fizzbuzz sequences. Every call, cached or not, emits
// exactly one tracking message so the hit counter stays accurate.
type Service struct {
	generator *fizzbuzz.Generator
	cache     cache.SequenceCache
	producer  queue.Producer
	log       *logger.Logger
}

// New constructs the service. The cache and producer are required; the
// generator defaults to the standard rule set.
func New(c cache.SequenceCache, producer queue.Producer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sequence")
	}
	return &Service{
		generator: fizzbuzz.NewGenerator(nil),
		cache:     c,
		producer:  producer,
		log:       log,
	}
}

// Generate returns the sequence for a validated request, serving from
// cache when possible. Tracking is dispatched asynchronously and its
// failures never surface to the caller.
func (s *Service) Generate(ctx context.Context, req fizzbuzz.Request) ([]string, error) {
	if seq, ok := s.cache.Get(ctx, req); ok {
		s.dispatch(ctx, req)
		return seq, nil
	}

	seq := s.generator.Generate(req)
	s.cache.Set(ctx, req, seq)
	metrics.RecordSequenceGenerated()
	s.log.WithFields(map[string]interface{}{
		"fingerprint": req.Fingerprint(),
		"count":       len(seq),
	}).Debug("generated sequence")

	s.dispatch(ctx, req)
	return seq, nil
}

func (s *Service) dispatch(ctx context.Context, req fizzbuzz.Request) {
	if err := s.producer.Publish(ctx, queue.NewTrackMessage(req)); err != nil {
		metrics.RecordDispatchFailure()
		s.log.WithError(err).
			WithField("fingerprint", req.Fingerprint()).
			Warn("failed to dispatch tracking message")
	}
}
