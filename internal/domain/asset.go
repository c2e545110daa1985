package domain

import "time"

// AssetMetadata records the provenance of a generated asset.
type AssetMetadata struct {
	Prompt      string    `json:"prompt"`
	Provider    string    `json:"provider"`
	GeneratedAt time.Time `json:"generated_at"`
	Size        string    `json:"size,omitempty"`
	Format      string    `json:"format,omitempty"`
}

// GeneratedAsset is one unit of generated content. It is immutable after
// creation; either URL or Content is populated depending on how the provider
// delivered the result.
type GeneratedAsset struct {
	ID       string        `json:"id"`
	Type     Modality      `json:"type"`
	URL      string        `json:"url,omitempty"`
	Content  []byte        `json:"content,omitempty"`
	Metadata AssetMetadata `json:"metadata"`
}
