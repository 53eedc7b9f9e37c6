// Package reconcile resolves statistics records whose async tracking never
// completed. It is the fallback path for lost or conflicted messages.
package reconcile

import (
	"context"
	"time"

	"github.com/fizzlabs/fizzbuzz-service/internal/metrics"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// DefaultStaleness is how old a pending record must be before the sweep
// touches it. Younger records may still be in flight through the consumer.
const DefaultStaleness = 5 * time.Minute

// Reconciler sweeps stale pending records. Each record is either promoted
// to processed or, when the increment fails, marked failed for good.
type Reconciler struct {
	store     stats.Store
	staleness time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// New constructs a reconciler. A non-positive staleness falls back to
// DefaultStaleness.
func New(store stats.Store, staleness time.Duration, log *logger.Logger) *Reconciler {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	if log == nil {
		log = logger.NewDefault("reconcile")
	}
	return &Reconciler{store: store, staleness: staleness, log: log, now: time.Now}
}

// ReconcilePendingRequests runs one sweep over stale pending records.
func (r *Reconciler) ReconcilePendingRequests(ctx context.Context) error {
	threshold := r.now().UTC().Add(-r.staleness)

	records, err := r.store.FindStalePending(ctx, threshold)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	r.log.WithField("count", len(records)).Info("reconciling stale pending records")

	for _, rec := range records {
		if _, err := r.store.IncrementProcessed(ctx, rec); err != nil {
			r.log.WithError(err).
				WithField("record_id", rec.ID).
				Error("failed to reconcile record, marking failed")
			if markErr := r.store.MarkFailed(ctx, rec.ID); markErr != nil {
				r.log.WithError(markErr).
					WithField("record_id", rec.ID).
					Error("failed to mark record failed")
			}
			metrics.RecordReconcileResult("failed")
			continue
		}
		metrics.RecordReconcileResult("processed")
	}

	return nil
}
