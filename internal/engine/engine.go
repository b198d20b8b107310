// Package engine ties the sync core together: it routes user actions to
// the remote service or the pending queue depending on connectivity,
// reacts to reachability/foreground/identity events, and owns the
// trigger wiring for the reconciliation loop.
package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hveda/gallerysync/internal/cache"
	"github.com/hveda/gallerysync/internal/connectivity"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
	"github.com/hveda/gallerysync/internal/reconcile"
	"github.com/hveda/gallerysync/internal/remote"
	"github.com/hveda/gallerysync/internal/view"
)

// Engine is the façade the host application talks to.
type Engine struct {
	cache      *cache.Store
	queue      *queue.Store
	feed       *view.Feed
	reconciler *reconcile.Reconciler
	monitor    *connectivity.Monitor
	remote     remote.Service
	log        *logrus.Entry
}

// New assembles an engine from its parts.
func New(cacheStore *cache.Store, queueStore *queue.Store, feed *view.Feed, reconciler *reconcile.Reconciler, monitor *connectivity.Monitor, service remote.Service) *Engine {
	return &Engine{
		cache:      cacheStore,
		queue:      queueStore,
		feed:       feed,
		reconciler: reconciler,
		monitor:    monitor,
		remote:     service,
		log:        logging.Component("engine"),
	}
}

// Start wires the connectivity subscription and runs the initial-mount
// trigger: when online, drain the queue and load the first page.
func (e *Engine) Start(ctx context.Context) error {
	e.monitor.Subscribe(func(online bool) {
		e.HandleConnectivity(ctx, online)
	})

	if !e.monitor.Online() {
		return nil
	}
	e.reconciler.TrySync(ctx)
	return e.feed.Refresh(ctx)
}

// DeleteAsset deletes one media entry.
//
// Online, the remote call runs synchronously and its failure propagates
// to the caller; the cache entry is removed only on success. Offline, the
// action never fails: it is queued (deduplicated against an existing
// pending delete) and the cache entry removed optimistically, with any
// eventual failure visible only on the queue entry.
func (e *Engine) DeleteAsset(ctx context.Context, target models.Target) error {
	if e.monitor.Online() {
		if err := e.remote.DeleteMedia(ctx, target); err != nil {
			return err
		}
		e.cache.RemoveAsset(target.Key())
		e.feed.Evict(target)
		return nil
	}

	e.queue.Enqueue(models.ActionDeleteAsset, target)
	e.cache.RemoveAsset(target.Key())
	e.log.WithField("target", target.Key()).Debug("delete queued offline")
	return nil
}

// ToggleFavorite flips the favorite state of one media entry, with the
// same online/offline split as DeleteAsset. The offline path relies on
// queue compression: an even number of toggles leaves no pending entry.
func (e *Engine) ToggleFavorite(ctx context.Context, target models.Target) error {
	if e.monitor.Online() {
		if err := e.remote.ToggleFavorite(ctx, target); err != nil {
			return err
		}
		e.cache.ToggleFavorite(target)
		return nil
	}

	e.queue.Enqueue(models.ActionToggleFavorite, target)
	e.cache.ToggleFavorite(target)
	e.log.WithField("target", target.Key()).Debug("favorite toggle queued offline")
	return nil
}

// SetUser switches the current user. A changed id atomically resets the
// cache, wipes the queue and drops all paging state so nothing leaks
// between accounts. An empty id means sign-out.
func (e *Engine) SetUser(id string) {
	if id == e.cache.User() {
		return
	}
	e.log.WithField("user", id).Info("user changed, resetting local state")
	e.cache.SetUser(id)
	e.queue.ClearAll()
	e.feed.Reset()
}

// SignOut wipes all local state for the current user.
func (e *Engine) SignOut() {
	e.log.Info("sign-out, wiping local state")
	e.cache.Clear()
	e.cache.SetUser("")
	e.queue.ClearAll()
	e.feed.Reset()
}

// HandleConnectivity reacts to a reachability transition. Coming back
// online drains the queue first, then refreshes the view so the next
// read reflects the confirmed mutations.
func (e *Engine) HandleConnectivity(ctx context.Context, online bool) {
	if !online {
		e.log.Info("went offline, mutations will queue")
		return
	}
	e.log.Info("back online, draining queue")
	e.reconciler.TrySync(ctx)
	if err := e.feed.Refresh(ctx); err != nil {
		e.log.WithError(err).Warn("refresh after reconnect failed")
	}
}

// HandleForeground reacts to the application returning to the
// foreground; online it attempts one reconciliation pass.
func (e *Engine) HandleForeground(ctx context.Context) {
	if !e.monitor.Online() {
		return
	}
	e.reconciler.TrySync(ctx)
}

// Refresh is the explicit user refresh: re-trigger reconciliation, then
// rebuild the first page.
func (e *Engine) Refresh(ctx context.Context) error {
	e.reconciler.TrySync(ctx)
	return e.feed.Refresh(ctx)
}

// LoadMore pages in the next slice of containers.
func (e *Engine) LoadMore(ctx context.Context) error {
	return e.feed.LoadMore(ctx)
}

// Items returns the merged list to render.
func (e *Engine) Items() []models.AssetItem {
	return e.feed.Items()
}

// HasMore reports whether more containers can be paged in.
func (e *Engine) HasMore() bool {
	return e.feed.HasMore()
}

// Feed exposes the view layer for status reporting.
func (e *Engine) Feed() *view.Feed {
	return e.feed
}

// Queue exposes the pending action queue for status reporting.
func (e *Engine) Queue() *queue.Store {
	return e.queue
}

// Cache exposes the cache store for status reporting.
func (e *Engine) Cache() *cache.Store {
	return e.cache
}

// Reconciler exposes the reconciliation loop for status reporting.
func (e *Engine) Reconciler() *reconcile.Reconciler {
	return e.reconciler
}
