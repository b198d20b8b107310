package models

// ContainerKind is the closed set of container flavors the remote service
// reports.
type ContainerKind string

const (
	ContainerKindSession    ContainerKind = "session"
	ContainerKindCollection ContainerKind = "collection"
	ContainerKindUpload     ContainerKind = "upload"
)

// Container groups one user's generations, e.g. a work session.
type Container struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      ContainerKind `json:"kind"`
	CreatedAt int64         `json:"created_at"`
}

// Generation is one produced result: zero or more images and/or videos
// plus prompt metadata.
type Generation struct {
	ID          string   `json:"id"`
	ContainerID string   `json:"container_id"`
	Prompt      string   `json:"prompt,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	Enhanced    bool     `json:"enhanced"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	PreviewURLs []string `json:"preview_urls,omitempty"`
	VideoURLs   []string `json:"video_urls,omitempty"`
}

// Assets flattens the generation's media arrays into displayable items.
// Indices are positions within the per-type media array and stay stable
// for the lifetime of the generation; a deleted entry leaves an empty URL
// slot behind rather than shifting its successors.
func (g Generation) Assets() []AssetItem {
	items := make([]AssetItem, 0, len(g.ImageURLs)+len(g.VideoURLs))
	for i, url := range g.ImageURLs {
		if url == "" {
			continue
		}
		item := AssetItem{
			ContainerID:  g.ContainerID,
			GenerationID: g.ID,
			MediaType:    MediaTypeImage,
			MediaIndex:   i,
			SourceURL:    url,
			Prompt:       g.Prompt,
			CreatedAt:    g.CreatedAt,
			Enhanced:     g.Enhanced,
			AspectRatio:  g.AspectRatio,
		}
		if i < len(g.PreviewURLs) {
			item.PreviewURL = g.PreviewURLs[i]
		}
		item.ID = item.Target().Key()
		items = append(items, item)
	}
	for i, url := range g.VideoURLs {
		if url == "" {
			continue
		}
		item := AssetItem{
			ContainerID:  g.ContainerID,
			GenerationID: g.ID,
			MediaType:    MediaTypeVideo,
			MediaIndex:   i,
			SourceURL:    url,
			Prompt:       g.Prompt,
			CreatedAt:    g.CreatedAt,
			Enhanced:     g.Enhanced,
			AspectRatio:  g.AspectRatio,
		}
		item.ID = item.Target().Key()
		items = append(items, item)
	}
	return items
}
