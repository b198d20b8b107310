// Package models provides data model definitions for the gallerysync core.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaType identifies the kind of media a target points at.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Valid reports whether the media type is one of the known kinds.
func (m MediaType) Valid() bool {
	return m == MediaTypeImage || m == MediaTypeVideo
}

// Target identifies one media entry inside a generation. Every mutation
// (delete, favorite toggle) applies to exactly one target.
type Target struct {
	GenerationID string    `db:"generation_id" json:"generation_id"`
	MediaType    MediaType `db:"media_type" json:"media_type"`
	MediaIndex   int       `db:"media_index" json:"media_index"`
}

// Key returns the composite identity "generationId:mediaType:index".
// It doubles as the AssetItem ID, so it must stay stable for the lifetime
// of a generation.
func (t Target) Key() string {
	return fmt.Sprintf("%s:%s:%d", t.GenerationID, t.MediaType, t.MediaIndex)
}

// ParseTarget parses a composite key back into a Target.
func ParseTarget(key string) (Target, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return Target{}, fmt.Errorf("malformed target key %q", key)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return Target{}, fmt.Errorf("malformed media index in target key %q", key)
	}
	t := Target{GenerationID: parts[0], MediaType: MediaType(parts[1]), MediaIndex: idx}
	if t.GenerationID == "" || !t.MediaType.Valid() {
		return Target{}, fmt.Errorf("malformed target key %q", key)
	}
	return t, nil
}
