package models

// FavoriteMark records that one target is favorited. Presence in the
// favorites set is the whole state; there is no separate boolean.
type FavoriteMark struct {
	GenerationID string    `db:"generation_id" json:"generation_id"`
	MediaType    MediaType `db:"media_type" json:"media_type"`
	MediaIndex   int       `db:"media_index" json:"media_index"`
}

// TableName returns the cache table name for FavoriteMark.
func (FavoriteMark) TableName() string {
	return "cache_favorites"
}

// Target returns the mark as a mutation target.
func (f FavoriteMark) Target() Target {
	return Target{
		GenerationID: f.GenerationID,
		MediaType:    f.MediaType,
		MediaIndex:   f.MediaIndex,
	}
}

// MarkFor builds the FavoriteMark for a target.
func MarkFor(t Target) FavoriteMark {
	return FavoriteMark{
		GenerationID: t.GenerationID,
		MediaType:    t.MediaType,
		MediaIndex:   t.MediaIndex,
	}
}
