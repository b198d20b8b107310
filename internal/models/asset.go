package models

// AssetItem is one displayable media unit, flattened out of a generation.
// ID is the target key of the entry, unique within a cache snapshot.
type AssetItem struct {
	ID           string    `db:"id" json:"id"`
	ContainerID  string    `db:"container_id" json:"container_id"`
	GenerationID string    `db:"generation_id" json:"generation_id"`
	MediaType    MediaType `db:"media_type" json:"media_type"`
	MediaIndex   int       `db:"media_index" json:"media_index"`
	SourceURL    string    `db:"source_url" json:"source_url"`
	PreviewURL   string    `db:"preview_url" json:"preview_url,omitempty"`
	Prompt       string    `db:"prompt" json:"prompt,omitempty"`
	CreatedAt    int64     `db:"created_at" json:"created_at"`
	Enhanced     bool      `db:"enhanced" json:"enhanced"`
	Favorite     bool      `db:"favorite" json:"favorite"`
	AspectRatio  string    `db:"aspect_ratio" json:"aspect_ratio,omitempty"`
}

// TableName returns the cache table name for AssetItem.
func (AssetItem) TableName() string {
	return "cache_assets"
}

// Target returns the mutation target for this asset.
func (a AssetItem) Target() Target {
	return Target{
		GenerationID: a.GenerationID,
		MediaType:    a.MediaType,
		MediaIndex:   a.MediaIndex,
	}
}

// AssetPatch carries the fields of a shallow asset update. Nil fields are
// left untouched by Store.UpdateAsset.
type AssetPatch struct {
	SourceURL   *string
	PreviewURL  *string
	Prompt      *string
	Enhanced    *bool
	Favorite    *bool
	AspectRatio *string
}
