// Package queue provides the durable, ordered log of mutations issued
// while disconnected (or faster than the network confirms them).
//
// The queue compresses redundant work at enqueue time: a second delete
// for the same target is dropped, and a second favorite toggle cancels
// the first (toggle composed with toggle is the identity). Surviving
// entries keep their original insertion order, so the reconciliation
// loop can replay them exactly as the user issued them.
package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hveda/gallerysync/internal/db"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/models"
)

type dedupKey struct {
	kind   models.ActionKind
	target models.Target
}

// Store is the pending action queue. In-memory state is authoritative and
// written through to SQLite so the queue survives process restarts.
type Store struct {
	mu       sync.Mutex
	db       *db.DB
	log      *logrus.Entry
	actions  []*models.PendingAction
	unsynced map[dedupKey]*models.PendingAction

	now func() time.Time
}

// NewStore opens the queue over an initialized database and reloads any
// persisted entries in their original order.
func NewStore(database *db.DB) (*Store, error) {
	s := &Store{
		db:       database,
		log:      logging.Component("queue"),
		unsynced: make(map[dedupKey]*models.PendingAction),
		now:      time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Enqueue appends a mutation for the target, applying the compression
// policy against existing unsynced entries with the same (kind, target):
//
//   - delete_asset: a duplicate is a no-op; the original entry already
//     represents the whole request.
//   - toggle_favorite: a duplicate cancels the pending entry instead of
//     queueing a second network call, so at most one unsynced toggle per
//     target exists and its presence tracks the net parity of all
//     toggles issued offline.
//
// Returns the created action, or nil when compression absorbed the call.
func (s *Store) Enqueue(kind models.ActionKind, target models.Target) *models.PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupKey{kind: kind, target: target}
	if existing, ok := s.unsynced[key]; ok {
		switch kind {
		case models.ActionDeleteAsset:
			s.log.WithField("target", target.Key()).Debug("duplicate delete dropped")
			return nil
		case models.ActionToggleFavorite:
			s.removeLocked(existing.ID)
			s.log.WithField("target", target.Key()).Debug("toggle pair cancelled")
			return nil
		}
	}

	action := &models.PendingAction{
		ID:           uuid.New().String(),
		Kind:         kind,
		GenerationID: target.GenerationID,
		MediaType:    target.MediaType,
		MediaIndex:   target.MediaIndex,
		State:        models.ActionStateQueued,
		CreatedAt:    s.now().Unix(),
	}

	res, err := s.db.Exec(`
		INSERT INTO pending_actions (id, kind, generation_id, media_type, media_index, state, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, '', ?)
	`, action.ID, action.Kind, action.GenerationID, action.MediaType, action.MediaIndex, action.State, action.CreatedAt)
	if err != nil {
		s.log.WithError(err).Warn("failed to persist enqueued action")
	} else if seq, err := res.LastInsertId(); err == nil {
		action.Seq = seq
	}

	s.actions = append(s.actions, action)
	s.unsynced[key] = action

	copied := *action
	return &copied
}

// MarkSyncing transitions an entry to the syncing state.
func (s *Store) MarkSyncing(id string) error {
	return s.transition(id, models.ActionStateSyncing, "")
}

// MarkSynced transitions an entry to the terminal synced state.
func (s *Store) MarkSynced(id string) error {
	return s.transition(id, models.ActionStateSynced, "")
}

// MarkFailed records a failure message on the entry. Failed entries stay
// eligible for the next reconciliation pass.
func (s *Store) MarkFailed(id string, message string) error {
	return s.transition(id, models.ActionStateFailed, message)
}

func (s *Store) transition(id string, state models.ActionState, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := s.findLocked(id)
	if action == nil {
		return fmt.Errorf("pending action %s not found", id)
	}
	action.State = state
	action.LastError = message

	if state == models.ActionStateSynced {
		key := dedupKey{kind: action.Kind, target: action.Target()}
		if tracked, ok := s.unsynced[key]; ok && tracked.ID == id {
			delete(s.unsynced, key)
		}
	}

	if _, err := s.db.Exec(`UPDATE pending_actions SET state = ?, last_error = ? WHERE id = ?`,
		state, message, id); err != nil {
		s.log.WithError(err).WithField("action", id).Warn("failed to persist state transition")
	}
	return nil
}

// PendingToSync returns queued-or-failed entries in original insertion
// order. Compression removes entries but never reorders survivors, so
// this order equals user-issued order per target.
func (s *Store) PendingToSync() []models.PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PendingAction
	for _, action := range s.actions {
		if action.State == models.ActionStateQueued || action.State == models.ActionStateFailed {
			out = append(out, *action)
		}
	}
	return out
}

// HasPendingAction reports whether an unsynced entry exists for the
// (kind, target) pair. The view layer uses it to hide in-flight deletes.
func (s *Store) HasPendingAction(kind models.ActionKind, target models.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unsynced[dedupKey{kind: kind, target: target}]
	return ok
}

// HasPendingDelete reports whether the target has an unsynced delete.
func (s *Store) HasPendingDelete(target models.Target) bool {
	return s.HasPendingAction(models.ActionDeleteAsset, target)
}

// ClearSynced garbage-collects terminal-success entries.
func (s *Store) ClearSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.actions[:0]
	for _, action := range s.actions {
		if action.State != models.ActionStateSynced {
			kept = append(kept, action)
		}
	}
	s.actions = kept

	if _, err := s.db.Exec(`DELETE FROM pending_actions WHERE state = ?`, models.ActionStateSynced); err != nil {
		s.log.WithError(err).Warn("failed to sweep synced actions")
	}
}

// ClearAll wipes the whole queue. Used on sign-out and user switch.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = nil
	s.unsynced = make(map[dedupKey]*models.PendingAction)
	if _, err := s.db.Exec(`DELETE FROM pending_actions`); err != nil {
		s.log.WithError(err).Warn("failed to wipe pending actions")
	}
}

// Len returns the number of entries currently in the queue.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// Stats returns per-state entry counts.
func (s *Store) Stats() map[models.ActionState]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[models.ActionState]int, 4)
	for _, action := range s.actions {
		stats[action.State]++
	}
	return stats
}

func (s *Store) findLocked(id string) *models.PendingAction {
	for _, action := range s.actions {
		if action.ID == id {
			return action
		}
	}
	return nil
}

// removeLocked drops an entry entirely (toggle cancellation).
func (s *Store) removeLocked(id string) {
	for i, action := range s.actions {
		if action.ID != id {
			continue
		}
		key := dedupKey{kind: action.Kind, target: action.Target()}
		if tracked, ok := s.unsynced[key]; ok && tracked.ID == id {
			delete(s.unsynced, key)
		}
		s.actions = append(s.actions[:i], s.actions[i+1:]...)
		if _, err := s.db.Exec(`DELETE FROM pending_actions WHERE id = ?`, id); err != nil {
			s.log.WithError(err).WithField("action", id).Warn("failed to persist cancellation")
		}
		return
	}
}

// load restores persisted entries in seq order and rebuilds the dedup
// index over unsynced states. Entries caught mid-sync by a crash are
// demoted to queued so they stay eligible; delivery is at-least-once, so
// a re-apply of an entry whose call did land converges on the remote.
func (s *Store) load() error {
	if _, err := s.db.Exec(`UPDATE pending_actions SET state = ? WHERE state = ?`,
		models.ActionStateQueued, models.ActionStateSyncing); err != nil {
		return err
	}

	rows, err := s.db.Query(`
		SELECT seq, id, kind, generation_id, media_type, media_index, state, last_error, created_at
		FROM pending_actions
		ORDER BY seq ASC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var action models.PendingAction
		if err := rows.Scan(
			&action.Seq, &action.ID, &action.Kind, &action.GenerationID,
			&action.MediaType, &action.MediaIndex, &action.State,
			&action.LastError, &action.CreatedAt,
		); err != nil {
			return err
		}
		stored := action
		s.actions = append(s.actions, &stored)
		if stored.Unsynced() {
			s.unsynced[dedupKey{kind: stored.Kind, target: stored.Target()}] = &stored
		}
	}
	return rows.Err()
}
