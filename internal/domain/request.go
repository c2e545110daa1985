package domain

// Modality enumerates the content modalities the orchestration core can request.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityCode  Modality = "code"
)

// AssetType enumerates the game asset categories exposed on the HTTP surface.
type AssetType string

const (
	AssetTypeCharacter   AssetType = "character"
	AssetTypeEnvironment AssetType = "environment"
	AssetTypeItem        AssetType = "item"
	AssetTypeUI          AssetType = "ui"
	AssetTypeMusic       AssetType = "music"
	AssetTypeSFX         AssetType = "sfx"
)

// Modality maps an asset type to the provider modality that produces it.
func (t AssetType) Modality() Modality {
	switch t {
	case AssetTypeMusic, AssetTypeSFX:
		return ModalityAudio
	default:
		return ModalityImage
	}
}

// Priority orders items within a batched generation request.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort weight of a priority; lower ranks are generated first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// GenerationRequest is the immutable creative request submitted to the core.
type GenerationRequest struct {
	Modality Modality
	Prompt   string
	Style    string
	Size     string
	Count    int
	Provider string
	Seed     int
}
