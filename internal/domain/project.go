package domain

import "time"

// GenerationReport summarizes a single project composition. Success is true
// exactly when Errors is empty; warnings never affect it.
type GenerationReport struct {
	Success     bool           `json:"success"`
	Errors      []string       `json:"errors"`
	Warnings    []string       `json:"warnings"`
	Suggestions []string       `json:"suggestions,omitempty"`
	AssetCounts map[string]int `json:"asset_counts"`
	ElapsedMS   int64          `json:"elapsed_ms"`
}

// GameProjectArtifact is the aggregate output of one MasterOrchestrator
// invocation. Individual sections may be empty when their pipeline failed or
// was disabled; the report records why.
type GameProjectArtifact struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Story        *StoryContent    `json:"story,omitempty"`
	VisualAssets []GeneratedAsset `json:"visual_assets"`
	AudioAssets  []GeneratedAsset `json:"audio_assets"`
	StyleGuides  []string         `json:"style_guides,omitempty"`
	Report       GenerationReport `json:"generation_report"`
	CreatedAt    time.Time        `json:"created_at"`
}
