package generators

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gameforge/internal/dispatch"
	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// AssetItem is one requested asset inside a batch.
type AssetItem struct {
	AssetType domain.AssetType
	Prompt    string
	Style     string
	Size      string
	Priority  domain.Priority
}

// VisualBrief is a batch of image asset requests.
type VisualBrief struct {
	Items    []AssetItem
	Provider string
}

// ProgressFunc reports batch progress, once per item.
type ProgressFunc func(index, total int, message string)

// VisualGenerator renders image assets through the image provider chain.
// Items are submitted in priority order and the batch is capped to bound
// spend; individual item failures become warnings, and the batch as a whole
// fails only when nothing was produced.
type VisualGenerator struct {
	dispatcher dispatch.Caller
	order      []string
	maxAssets  int
	logger     zerolog.Logger
}

// NewVisualGenerator constructs a VisualGenerator. maxAssets caps how many
// items of a batch are actually submitted.
func NewVisualGenerator(dispatcher dispatch.Caller, order []string, maxAssets int, logger zerolog.Logger) *VisualGenerator {
	if maxAssets <= 0 {
		maxAssets = 10
	}
	return &VisualGenerator{dispatcher: dispatcher, order: order, maxAssets: maxAssets, logger: logger}
}

// Generate runs the batch. onProgress may be nil.
func (g *VisualGenerator) Generate(ctx context.Context, brief VisualBrief, onProgress ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	items := prioritize(brief.Items, g.maxAssets)
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: no asset items in brief", domain.ErrInvalidRequest)
	}
	order := g.order
	if brief.Provider != "" {
		order = []string{brief.Provider}
	}

	var (
		assets   []domain.GeneratedAsset
		warnings []string
	)
	for i, item := range items {
		if onProgress != nil {
			onProgress(i, len(items), fmt.Sprintf("generating %s", item.AssetType))
		}
		resp, err := g.dispatcher.Dispatch(ctx, domain.ModalityImage, providers.Request{
			Prompt: item.Prompt,
			Style:  item.Style,
			Size:   item.Size,
		}, order)
		if err != nil {
			g.logger.Warn().Err(err).Str("asset_type", string(item.AssetType)).Msg("asset item failed")
			warnings = append(warnings, fmt.Sprintf("%s asset failed: %v", item.AssetType, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		assets = append(assets, assetsFromResponse(domain.ModalityImage, item.Prompt, item.Size, resp)...)
	}
	if len(assets) == 0 {
		return nil, warnings, fmt.Errorf("%w: all %d asset items failed", domain.ErrProviderFailure, len(items))
	}
	return assets, warnings, nil
}

// prioritize orders items high before medium before low, stably, and trims
// the batch to the cap.
func prioritize(items []AssetItem, limit int) []AssetItem {
	sorted := make([]AssetItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// assetsFromResponse converts a raw provider response into owned, immutable
// GeneratedAssets.
func assetsFromResponse(modality domain.Modality, prompt, size string, resp *providers.RawResponse) []domain.GeneratedAsset {
	now := time.Now().UTC()
	out := make([]domain.GeneratedAsset, 0, len(resp.Assets))
	for _, raw := range resp.Assets {
		out = append(out, domain.GeneratedAsset{
			ID:      uuid.NewString(),
			Type:    modality,
			URL:     raw.URL,
			Content: raw.Data,
			Metadata: domain.AssetMetadata{
				Prompt:      prompt,
				Provider:    resp.Provider,
				GeneratedAt: now,
				Size:        size,
				Format:      raw.Format,
			},
		})
	}
	return out
}
