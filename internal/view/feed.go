// Package view assembles the single asset list the rest of the
// application renders. It merges whichever base is authoritative (live
// remote data when online, the cache otherwise) with the favorite overlay
// and pending-delete tombstones, and drives incremental paging over
// remote containers.
package view

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hveda/gallerysync/internal/cache"
	"github.com/hveda/gallerysync/internal/connectivity"
	apperrors "github.com/hveda/gallerysync/internal/errors"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
	"github.com/hveda/gallerysync/internal/remote"
)

// DefaultPageSize is the number of containers materialized per page.
const DefaultPageSize = 10

// Feed drives paging and produces the merged, rendered asset list.
type Feed struct {
	mu       sync.Mutex
	cache    *cache.Store
	queue    *queue.Store
	remote   remote.Service
	monitor  *connectivity.Monitor
	log      *logrus.Entry
	pageSize int

	containers []models.Container
	visited    map[string]bool
	limit      int
	live       map[string][]models.AssetItem
	liveLoaded bool
}

// NewFeed creates a feed over the given stores and collaborators.
func NewFeed(cacheStore *cache.Store, queueStore *queue.Store, service remote.Service, monitor *connectivity.Monitor, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{
		cache:    cacheStore,
		queue:    queueStore,
		remote:   service,
		monitor:  monitor,
		log:      logging.Component("view"),
		pageSize: pageSize,
		visited:  make(map[string]bool),
		live:     make(map[string][]models.AssetItem),
	}
}

// Refresh re-reads the container list, resets paging to the first page
// and re-fetches it. Offline it is a no-op: the cache stays the base.
func (f *Feed) Refresh(ctx context.Context) error {
	if !f.monitor.Online() {
		return nil
	}

	owner := f.cache.User()

	containers, err := f.remote.ListContainers(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeOf(err), "failed to list containers", err)
	}

	f.mu.Lock()
	f.containers = containers
	f.visited = make(map[string]bool)
	f.live = make(map[string][]models.AssetItem)
	f.liveLoaded = false
	f.limit = min(f.pageSize, len(containers))
	slice := containersSlice(containers, 0, f.limit)
	f.mu.Unlock()

	if err := f.fetchContainers(ctx, slice, owner); err != nil {
		return err
	}

	favorites, err := f.remote.ListFavorites(ctx)
	if err != nil {
		f.log.WithError(err).Warn("failed to refresh favorites")
	} else if f.cache.User() == owner {
		f.cache.SetFavorites(favorites)
	}

	return nil
}

// LoadMore materializes the next unfetched slice of containers. Fetches
// fan out concurrently, one per container, and merge by container id, so
// completion order does not matter. The limit only ever grows.
func (f *Feed) LoadMore(ctx context.Context) error {
	if !f.monitor.Online() {
		return nil
	}

	owner := f.cache.User()

	f.mu.Lock()
	start := f.limit
	end := min(start+f.pageSize, len(f.containers))
	slice := containersSlice(f.containers, start, end)
	f.limit = end
	f.mu.Unlock()

	if len(slice) == 0 {
		return nil
	}
	return f.fetchContainers(ctx, slice, owner)
}

// HasMore reports whether unmaterialized containers remain.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.containers) > f.limit
}

// Limit returns the current container limit (for status reporting).
func (f *Feed) Limit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit
}

// Containers returns how many containers the remote reported.
func (f *Feed) Containers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.containers)
}

// Items returns the merged list the application renders:
//
//   - base: live remote data when online and loaded, cache otherwise
//   - favorite flags overwritten from the favorite overlay, which carries
//     optimistic toggles not yet reflected in the base
//   - items with an unsynced delete filtered out (logical tombstones);
//     the queue entries themselves stay untouched until terminal
func (f *Feed) Items() []models.AssetItem {
	f.mu.Lock()
	base := f.baseLocked()
	f.mu.Unlock()

	out := make([]models.AssetItem, 0, len(base))
	for _, item := range base {
		target := item.Target()
		if f.queue.HasPendingDelete(target) {
			continue
		}
		item.Favorite = f.cache.IsFavorite(target)
		out = append(out, item)
	}
	return out
}

// IsPendingDelete reports whether the target is tombstoned.
func (f *Feed) IsPendingDelete(target models.Target) bool {
	return f.queue.HasPendingDelete(target)
}

// Evict removes one item from the live base. Used after a confirmed
// online delete so the item disappears without waiting for a refetch.
func (f *Feed) Evict(target models.Target) {
	key := target.Key()
	f.mu.Lock()
	defer f.mu.Unlock()
	for containerID, items := range f.live {
		for i, item := range items {
			if item.ID == key {
				f.live[containerID] = append(items[:i], items[i+1:]...)
				return
			}
		}
	}
}

// Reset drops all live and paging state. Used on user switch.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = nil
	f.visited = make(map[string]bool)
	f.live = make(map[string][]models.AssetItem)
	f.liveLoaded = false
	f.limit = 0
}

// baseLocked selects the authoritative base list.
func (f *Feed) baseLocked() []models.AssetItem {
	if f.monitor.Online() && f.liveLoaded {
		return flattenLive(f.live)
	}
	return f.cache.Assets()
}

// fetchContainers fetches items for each not-yet-visited container in the
// slice, one goroutine per container. A container is fetched at most once
// per process lifetime; failed fetches stay unvisited and are retried by
// a later page or refresh.
func (f *Feed) fetchContainers(ctx context.Context, containers []models.Container, owner string) error {
	f.mu.Lock()
	var todo []models.Container
	for _, c := range containers {
		if !f.visited[c.ID] {
			todo = append(todo, c)
		}
	}
	f.mu.Unlock()

	if len(todo) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mergeMu  sync.Mutex
		fetched  = make(map[string][]models.AssetItem, len(todo))
		firstErr error
	)
	for _, container := range todo {
		wg.Add(1)
		go func(c models.Container) {
			defer wg.Done()
			generations, err := f.remote.ListContainerItems(ctx, c.ID)
			if err != nil {
				mergeMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mergeMu.Unlock()
				f.log.WithError(err).WithField("container", c.ID).Warn("container fetch failed")
				return
			}
			var items []models.AssetItem
			for _, g := range generations {
				items = append(items, g.Assets()...)
			}
			mergeMu.Lock()
			fetched[c.ID] = items
			mergeMu.Unlock()
		}(container)
	}
	wg.Wait()

	// A pass superseded by a user switch must not write another user's
	// snapshot; its results are discarded.
	if f.cache.User() != owner {
		f.log.Info("owner changed mid-fetch, discarding results")
		return nil
	}

	// Only successful reads may touch the snapshot. When every fetch
	// failed, the last known data stays the base, both live and cached.
	if len(fetched) == 0 {
		return apperrors.Wrap(apperrors.CodeOf(firstErr), "one or more container fetches failed", firstErr)
	}

	failed := make(map[string]bool)
	for _, c := range todo {
		if _, ok := fetched[c.ID]; !ok {
			failed[c.ID] = true
		}
	}

	f.mu.Lock()
	for id, items := range fetched {
		f.visited[id] = true
		f.live[id] = items
	}
	f.liveLoaded = true
	merged := flattenLive(f.live)
	f.mu.Unlock()

	// Containers whose fetch failed keep their cached entries; they stay
	// unvisited and are retried by a later page or refresh.
	if len(failed) > 0 {
		for _, item := range f.cache.Assets() {
			if failed[item.ContainerID] {
				merged = append(merged, item)
			}
		}
	}
	f.cache.SetAssets(merged)

	if firstErr != nil {
		return apperrors.Wrap(apperrors.CodeOf(firstErr), "one or more container fetches failed", firstErr)
	}
	return nil
}

func flattenLive(live map[string][]models.AssetItem) []models.AssetItem {
	var out []models.AssetItem
	for _, items := range live {
		out = append(out, items...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func containersSlice(containers []models.Container, start, end int) []models.Container {
	if start >= len(containers) {
		return nil
	}
	if end > len(containers) {
		end = len(containers)
	}
	out := make([]models.Container, end-start)
	copy(out, containers[start:end])
	return out
}
