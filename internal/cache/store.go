// Package cache provides the durable, user-scoped mirror of the remote
// catalog. The store is the offline base of the rendered view: every
// successful remote read replaces its asset list, and offline mutations
// update it optimistically.
//
// Store methods never return errors. State transitions are applied
// in memory first and written through to SQLite; a persistence failure
// is logged and costs durability, not correctness.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hveda/gallerysync/internal/db"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/models"
)

// DefaultLimit caps the cached asset list at the 200 most recent items.
const DefaultLimit = 200

// Store holds the last known remote catalog for exactly one user.
type Store struct {
	mu        sync.RWMutex
	db        *db.DB
	log       *logrus.Entry
	limit     int
	user      string
	assets    []models.AssetItem
	favorites map[models.Target]struct{}
	lastFetch int64

	now func() time.Time
}

// NewStore opens the cache over an initialized database and loads the
// persisted snapshot, so cached state survives process restarts.
func NewStore(database *db.DB, limit int) (*Store, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{
		db:        database,
		log:       logging.Component("cache"),
		limit:     limit,
		favorites: make(map[models.Target]struct{}),
		now:       time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// User returns the id of the user owning the current snapshot.
func (s *Store) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser switches the owning user. A different id atomically clears
// assets, favorites and the fetch timestamp so one account never sees
// another account's data. The same id is a no-op.
func (s *Store) SetUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.user {
		return
	}
	s.user = id
	s.resetLocked()
	s.persistMeta()
	s.persistAssets()
	s.persistFavorites()
}

// SetAssets replaces the asset list with the newest entries of list, capped
// at the store limit, and stamps the fetch time. This is the only writer of
// authoritative data; callers pass whatever the remote read returned.
func (s *Store) SetAssets(list []models.AssetItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]models.AssetItem, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt > sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > s.limit {
		sorted = sorted[:s.limit]
	}
	for i := range sorted {
		_, fav := s.favorites[sorted[i].Target()]
		sorted[i].Favorite = fav
	}

	s.assets = sorted
	s.lastFetch = s.now().Unix()
	s.persistAssets()
	s.persistMeta()
}

// SetFavorites replaces the favorites set verbatim and re-derives the
// favorite flag on cached assets.
func (s *Store) SetFavorites(list []models.FavoriteMark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.favorites = make(map[models.Target]struct{}, len(list))
	for _, mark := range list {
		s.favorites[mark.Target()] = struct{}{}
	}
	for i := range s.assets {
		_, fav := s.favorites[s.assets[i].Target()]
		s.assets[i].Favorite = fav
	}
	s.persistFavorites()
	s.persistAssets()
}

// UpdateAsset shallow-merges patch fields into the matching entry.
// Unknown ids are a no-op.
func (s *Store) UpdateAsset(id string, patch models.AssetPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.assets {
		if s.assets[i].ID != id {
			continue
		}
		applyPatch(&s.assets[i], patch)
		s.persistAsset(s.assets[i])
		return
	}
}

// RemoveAsset deletes the entry with the given id. Used for the offline
// optimistic delete; unknown ids are a no-op.
func (s *Store) RemoveAsset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.assets {
		if s.assets[i].ID != id {
			continue
		}
		s.assets = append(s.assets[:i], s.assets[i+1:]...)
		if _, err := s.db.Exec(`DELETE FROM cache_assets WHERE id = ?`, id); err != nil {
			s.log.WithError(err).Warn("failed to persist asset removal")
		}
		return
	}
}

// ToggleFavorite flips the target's membership in the favorites set and
// mirrors the derived flag on the matching asset. Toggling twice restores
// the original state; membership is the whole favorite state.
func (s *Store) ToggleFavorite(target models.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.favorites[target]
	if present {
		delete(s.favorites, target)
	} else {
		s.favorites[target] = struct{}{}
	}

	key := target.Key()
	for i := range s.assets {
		if s.assets[i].ID == key {
			s.assets[i].Favorite = !present
			s.persistAsset(s.assets[i])
			break
		}
	}
	s.persistFavorites()
}

// Clear wipes all cached state for the current user. Used on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.persistMeta()
	s.persistAssets()
	s.persistFavorites()
}

// Assets returns a copy of the cached asset list, newest first.
func (s *Store) Assets() []models.AssetItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AssetItem, len(s.assets))
	copy(out, s.assets)
	return out
}

// Favorites returns a copy of the favorites set.
func (s *Store) Favorites() []models.FavoriteMark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FavoriteMark, 0, len(s.favorites))
	for target := range s.favorites {
		out = append(out, models.MarkFor(target))
	}
	return out
}

// IsFavorite reports whether the target is in the favorites set.
func (s *Store) IsFavorite(target models.Target) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[target]
	return ok
}

// LastFetch returns the time of the last successful remote read, or the
// zero time if none happened for the current user.
func (s *Store) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastFetch == 0 {
		return time.Time{}
	}
	return time.Unix(s.lastFetch, 0)
}

// Len returns the number of cached assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

func (s *Store) resetLocked() {
	s.assets = nil
	s.favorites = make(map[models.Target]struct{})
	s.lastFetch = 0
}

func applyPatch(item *models.AssetItem, patch models.AssetPatch) {
	if patch.SourceURL != nil {
		item.SourceURL = *patch.SourceURL
	}
	if patch.PreviewURL != nil {
		item.PreviewURL = *patch.PreviewURL
	}
	if patch.Prompt != nil {
		item.Prompt = *patch.Prompt
	}
	if patch.Enhanced != nil {
		item.Enhanced = *patch.Enhanced
	}
	if patch.Favorite != nil {
		item.Favorite = *patch.Favorite
	}
	if patch.AspectRatio != nil {
		item.AspectRatio = *patch.AspectRatio
	}
}
