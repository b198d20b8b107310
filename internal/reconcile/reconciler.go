// Package reconcile drains the pending action queue against the remote
// service. It is the sole writer of queue lifecycle state and the single
// serialization point for queued mutations.
package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
	"github.com/hveda/gallerysync/internal/remote"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Total     int // entries eligible at pass start
	Applied   int // confirmed by the remote
	Converged int // already absent remotely, treated as success
	Failed    int // recorded as failed, retried on the next trigger
	Dropped   bool
	StartTime time.Time
	EndTime   time.Time
}

// Reconciler applies queued mutations with at-least-once delivery and
// idempotent convergence.
type Reconciler struct {
	queue  *queue.Store
	remote remote.Service
	log    *logrus.Entry

	inFlight atomic.Bool

	// OnProgress, when set, is called after each entry with the number of
	// processed entries and the pass total.
	OnProgress func(done, total int)

	mu       sync.Mutex
	lastPass time.Time
	lastErr  error
}

// New creates a reconciler over the queue and remote service.
func New(queueStore *queue.Store, service remote.Service) *Reconciler {
	return &Reconciler{
		queue:  queueStore,
		remote: service,
		log:    logging.Component("reconcile"),
	}
}

// TrySync runs one reconciliation pass, unless one is already running.
// A trigger arriving mid-pass is dropped, not queued: the next trigger
// re-drains any remainder, which keeps correctness without a re-trigger
// bookkeeping step.
func (r *Reconciler) TrySync(ctx context.Context) (*Result, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return &Result{Dropped: true}, nil
	}
	defer r.inFlight.Store(false)

	result := r.pass(ctx)

	r.mu.Lock()
	r.lastPass = result.EndTime
	r.lastErr = ctx.Err()
	r.mu.Unlock()

	return result, nil
}

// pass drains the queue sequentially. Per-target ordering must match
// user-issued order, so entries are never applied concurrently: a delete
// racing its own favorite toggle would otherwise resolve arbitrarily.
func (r *Reconciler) pass(ctx context.Context) *Result {
	result := &Result{StartTime: time.Now()}
	defer func() { result.EndTime = time.Now() }()

	pending := r.queue.PendingToSync()
	result.Total = len(pending)
	if len(pending) == 0 {
		return result
	}

	r.log.WithField("pending", len(pending)).Info("reconciliation pass started")

	for i, action := range pending {
		if ctx.Err() != nil {
			// Remainder stays queued for the next trigger.
			break
		}

		if err := r.queue.MarkSyncing(action.ID); err != nil {
			// Entry vanished since the snapshot (sign-out or toggle
			// cancellation); nothing to apply.
			continue
		}

		err := r.apply(ctx, action)
		switch {
		case err == nil:
			r.queue.MarkSynced(action.ID)
			result.Applied++
		case apperrors.IsNotFound(err):
			// Target already gone remotely: the outcome the user asked
			// for holds, so converge instead of failing.
			r.log.WithFields(logrus.Fields{
				"action": action.ID,
				"target": action.Target().Key(),
			}).Info("target already absent, converged")
			r.queue.MarkSynced(action.ID)
			result.Converged++
		default:
			// One stuck entry must not block the rest of the queue.
			r.queue.MarkFailed(action.ID, err.Error())
			result.Failed++
			r.log.WithError(err).WithFields(logrus.Fields{
				"action": action.ID,
				"kind":   action.Kind,
			}).Warn("action failed, will retry on next trigger")
		}

		if r.OnProgress != nil {
			r.OnProgress(i+1, len(pending))
		}
	}

	r.queue.ClearSynced()

	r.log.WithFields(logrus.Fields{
		"applied":   result.Applied,
		"converged": result.Converged,
		"failed":    result.Failed,
	}).Info("reconciliation pass finished")

	return result
}

func (r *Reconciler) apply(ctx context.Context, action models.PendingAction) error {
	switch action.Kind {
	case models.ActionDeleteAsset:
		return r.remote.DeleteMedia(ctx, action.Target())
	case models.ActionToggleFavorite:
		return r.remote.ToggleFavorite(ctx, action.Target())
	default:
		return apperrors.Newf(apperrors.CodeValidation, "unknown action kind %q", action.Kind)
	}
}

// Running reports whether a pass is currently in flight.
func (r *Reconciler) Running() bool {
	return r.inFlight.Load()
}

// LastPass returns the end time of the most recent pass.
func (r *Reconciler) LastPass() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPass
}

// LastError returns the context error of the most recent pass, if any.
// Per-entry failures are not pass errors; they live on the entries.
func (r *Reconciler) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
