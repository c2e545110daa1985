package generators

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gameforge/internal/dispatch"
	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// AudioBrief is a batch of audio asset requests. Items reuse AssetItem with
// audio asset types (music, sfx).
type AudioBrief struct {
	Items    []AssetItem
	Provider string
}

// AudioGenerator produces music and sound effects through the audio provider
// chain, with the same partial-failure policy as the visual batch.
type AudioGenerator struct {
	dispatcher dispatch.Caller
	order      []string
	maxAssets  int
	logger     zerolog.Logger
}

// NewAudioGenerator constructs an AudioGenerator.
func NewAudioGenerator(dispatcher dispatch.Caller, order []string, maxAssets int, logger zerolog.Logger) *AudioGenerator {
	if maxAssets <= 0 {
		maxAssets = 10
	}
	return &AudioGenerator{dispatcher: dispatcher, order: order, maxAssets: maxAssets, logger: logger}
}

// Generate runs the batch. onProgress may be nil.
func (g *AudioGenerator) Generate(ctx context.Context, brief AudioBrief, onProgress ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	items := prioritize(brief.Items, g.maxAssets)
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: no audio items in brief", domain.ErrInvalidRequest)
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
		resp, err := g.dispatcher.Dispatch(ctx, domain.ModalityAudio, providers.Request{
			Prompt: item.Prompt,
			Style:  item.Style,
		}, order)
		if err != nil {
			g.logger.Warn().Err(err).Str("asset_type", string(item.AssetType)).Msg("audio item failed")
			warnings = append(warnings, fmt.Sprintf("%s audio failed: %v", item.AssetType, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		assets = append(assets, assetsFromResponse(domain.ModalityAudio, item.Prompt, "", resp)...)
	}
	if len(assets) == 0 {
		return nil, warnings, fmt.Errorf("%w: all %d audio items failed", domain.ErrProviderFailure, len(items))
	}
	return assets, warnings, nil
}
