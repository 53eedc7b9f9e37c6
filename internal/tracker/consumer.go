// Package tracker consumes tracking messages and applies them to the
// statistics store.
package tracker

import (
	"context"
	"errors"

	"github.com/fizzlabs/fizzbuzz-service/internal/metrics"
	"github.com/fizzlabs/fizzbuzz-service/internal/queue"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// maxLockRetries bounds optimistic-lock retries per message. A conflict on
// the retry itself is left for the reconciliation sweep.
const maxLockRetries = 1

// Consumer processes tracking messages. Errors are logged and swallowed so
// a bad message never loops; a partially created record stays pending and
// reconciliation resolves it later.
type Consumer struct {
	store  stats.Store
	source queue.Source
	log    *logger.Logger
}

// New constructs a tracking consumer.
func New(store stats.Store, source queue.Source, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewDefault("tracker")
	}
	return &Consumer{store: store, source: source, log: log}
}

// Run consumes messages until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("tracking consumer started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("tracking consumer stopped")
			return ctx.Err()
		default:
		}

		msg, err := c.source.Pop(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.log.Info("tracking consumer stopped")
			return err
		}
		if err != nil {
			c.log.WithError(err).Warn("failed to pop tracking message")
			continue
		}

		c.Process(ctx, msg)
	}
}

// Process applies a single tracking message: find or create the record,
// then increment hits and mark it processed under the optimistic version
// check, retrying once on conflict.
func (c *Consumer) Process(ctx context.Context, msg queue.TrackMessage) {
	req := msg.Request()
	log := c.log.WithField("fingerprint", req.Fingerprint())

	rec, err := stats.FindOrCreate(ctx, c.store, req)
	if err != nil {
		log.WithError(err).Error("failed to find or create stat record")
		metrics.RecordConsumerResult("error")
		return
	}

	if _, err := c.store.IncrementProcessed(ctx, rec); err == nil {
		metrics.RecordConsumerResult("processed")
		return
	} else if !errors.Is(err, stats.ErrVersionConflict) {
		log.WithError(err).Error("failed to increment stat record")
		metrics.RecordConsumerResult("error")
		return
	}

	for attempt := 1; attempt <= maxLockRetries; attempt++ {
		fresh, err := c.store.Refresh(ctx, rec.ID)
		if err != nil {
			log.WithError(err).Error("failed to refresh stat record after conflict")
			metrics.RecordConsumerResult("error")
			return
		}
		if _, err := c.store.IncrementProcessed(ctx, fresh); err == nil {
			metrics.RecordConsumerResult("retried")
			return
		} else if !errors.Is(err, stats.ErrVersionConflict) {
			log.WithError(err).Error("failed to increment stat record on retry")
			metrics.RecordConsumerResult("error")
			return
		}
	}

	// Still conflicting after the bounded retry; the record stays pending
	// and the stale-pending sweep picks it up.
	log.WithField("record_id", rec.ID).Warn("optimistic lock conflict persisted, leaving record pending")
	metrics.RecordConsumerResult("conflict")
}
