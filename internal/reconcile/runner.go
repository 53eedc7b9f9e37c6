package reconcile

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// Runner executes the sweep on a cron schedule, taking the distributed
// lock first so overlapping instances skip instead of double-sweeping.
type Runner struct {
	reconciler *Reconciler
	lock       Locker
	schedule   string
	cron       *cron.Cron
	log        *logger.Logger
}

// NewRunner builds a scheduled runner. The schedule uses cron syntax,
// including descriptors such as "@every 1m".
func NewRunner(reconciler *Reconciler, lock Locker, schedule string, log *logger.Logger) *Runner {
	if lock == nil {
		lock = NoopLock{}
	}
	if log == nil {
		log = logger.NewDefault("reconcile-runner")
	}
	return &Runner{
		reconciler: reconciler,
		lock:       lock,
		schedule:   schedule,
		cron:       cron.New(),
		log:        log,
	}
}

// Start registers the sweep job and starts the scheduler.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.log.WithField("schedule", r.schedule).Info("reconcile runner started")
	return nil
}

// RunOnce performs a single locked sweep. It is also the body of the
// scheduled job.
func (r *Runner) RunOnce(ctx context.Context) {
	ok, err := r.lock.Acquire(ctx)
	if err != nil {
		r.log.WithError(err).Error("failed to acquire reconcile lock")
		return
	}
	if !ok {
		r.log.Debug("reconcile lock held elsewhere, skipping sweep")
		return
	}
	defer func() {
		if err := r.lock.Release(ctx); err != nil {
			r.log.WithError(err).Warn("failed to release reconcile lock")
		}
	}()

	if err := r.reconciler.ReconcilePendingRequests(ctx); err != nil {
		r.log.WithError(err).Error("reconcile sweep failed")
	}
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.log.Info("reconcile runner stopped")
}
