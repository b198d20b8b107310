package models

// ActionKind is the kind of queued mutation.
type ActionKind string

const (
	ActionDeleteAsset    ActionKind = "delete_asset"
	ActionToggleFavorite ActionKind = "toggle_favorite"
)

// ActionState is the lifecycle state of a queued mutation.
type ActionState string

const (
	ActionStateQueued  ActionState = "queued"
	ActionStateSyncing ActionState = "syncing"
	ActionStateSynced  ActionState = "synced"
	ActionStateFailed  ActionState = "failed"
)

// PendingAction is one queued mutation awaiting remote confirmation.
// It is created by the invoking operation, advanced only by the
// reconciliation loop, and removed only by the queue's own sweep.
type PendingAction struct {
	ID           string      `db:"id" json:"id"`
	Seq          int64       `db:"seq" json:"seq"`
	Kind         ActionKind  `db:"kind" json:"kind"`
	GenerationID string      `db:"generation_id" json:"generation_id"`
	MediaType    MediaType   `db:"media_type" json:"media_type"`
	MediaIndex   int         `db:"media_index" json:"media_index"`
	State        ActionState `db:"state" json:"state"`
	LastError    string      `db:"last_error" json:"last_error,omitempty"`
	CreatedAt    int64       `db:"created_at" json:"created_at"`
}

// TableName returns the queue table name for PendingAction.
func (PendingAction) TableName() string {
	return "pending_actions"
}

// Target returns the mutation target of the action.
func (a PendingAction) Target() Target {
	return Target{
		GenerationID: a.GenerationID,
		MediaType:    a.MediaType,
		MediaIndex:   a.MediaIndex,
	}
}

// Unsynced reports whether the action still awaits remote confirmation.
// Failed entries count: they stay eligible for the next pass.
func (a PendingAction) Unsynced() bool {
	return a.State == ActionStateQueued || a.State == ActionStateSyncing || a.State == ActionStateFailed
}
