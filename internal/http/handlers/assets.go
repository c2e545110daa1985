package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gameforge/internal/domain"
	"gameforge/internal/generators"
	"gameforge/internal/jobs"
)

type assetsRequest struct {
	Prompt    string `json:"prompt"`
	AssetType string `json:"assetType"`
	Style     string `json:"style"`
	Size      string `json:"size"`
	Count     int    `json:"count"`
	Provider  string `json:"provider"`
	Priority  string `json:"priority"`
}

// GenerateAssets handles POST /api/ai/generate-assets. When the local
// inference service heads the image chain and is healthy, work is queued as
// a tracked job and the response carries a tracking URL; otherwise the batch
// runs inline and the assets come back in the response body.
func (a *App) GenerateAssets(w http.ResponseWriter, r *http.Request) {
	var req assetsRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}
	assetType := domain.AssetType(strings.ToLower(req.AssetType))
	switch assetType {
	case domain.AssetTypeCharacter, domain.AssetTypeEnvironment, domain.AssetTypeItem,
		domain.AssetTypeUI, domain.AssetTypeMusic, domain.AssetTypeSFX:
	default:
		a.error(w, http.StatusBadRequest, fmt.Sprintf("unknown assetType %q", req.AssetType), nil)
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > a.MaxBatch {
		req.Count = a.MaxBatch
	}

	if assetType.Modality() == domain.ModalityImage && req.Provider == "" && a.localInferenceReady(r.Context()) {
		a.queueAssetJob(w, assetType, req)
		return
	}
	a.generateAssetsSync(w, r, assetType, req)
}

// localInferenceReady reports whether async processing applies: the local
// service must head the image chain and answer its health check.
func (a *App) localInferenceReady(ctx context.Context) bool {
	if a.LocalInference == nil || len(a.ImageOrder) == 0 {
		return false
	}
	if a.ImageOrder[0] != "assetgen" {
		return false
	}
	return a.LocalInference.Healthy(ctx)
}

func (a *App) queueAssetJob(w http.ResponseWriter, assetType domain.AssetType, req assetsRequest) {
	job := a.Tracker.Create(a.BackgroundCtx, assetType, req.Prompt)
	go a.runAssetJob(job.ID, assetType, req)

	a.json(w, http.StatusAccepted, map[string]any{
		"jobId":         job.ID,
		"status":        "processing",
		"trackingUrl":   "/api/ai/jobs/" + job.ID,
		"provider":      a.ImageOrder[0],
		"estimatedTime": a.ProgressConfig.EstimatedSeconds,
	})
}

func (a *App) runAssetJob(jobID string, assetType domain.AssetType, req assetsRequest) {
	ctx := a.BackgroundCtx
	assets, _, err := a.generateBatch(ctx, assetType, req, func(i, n int, message string) {
		_ = a.Tracker.Advance(ctx, jobID, jobs.BatchProgress(i, n), message, i+1, n)
	})
	if err != nil {
		if failErr := a.Tracker.Fail(ctx, jobID, err); failErr != nil {
			a.Logger.Warn().Err(failErr).Str("job_id", jobID).Msg("could not mark job failed")
		}
		return
	}
	payload := a.assetPayload(ctx, jobID, assets)
	encoded, err := json.Marshal(payload)
	if err != nil {
		_ = a.Tracker.Fail(ctx, jobID, err)
		return
	}
	if err := a.Tracker.Complete(ctx, jobID, encoded); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("could not complete job")
	}
}

func (a *App) generateAssetsSync(w http.ResponseWriter, r *http.Request, assetType domain.AssetType, req assetsRequest) {
	assets, warnings, err := a.generateBatch(r.Context(), assetType, req, nil)
	if err != nil {
		a.generationError(w, err)
		return
	}
	payload := a.assetPayload(r.Context(), "", assets)
	provider := ""
	if len(assets) > 0 {
		provider = assets[0].Metadata.Provider
	}
	a.json(w, http.StatusOK, map[string]any{
		"assets": payload,
		"metadata": map[string]any{
			"provider":    provider,
			"warnings":    warnings,
			"generatedAt": time.Now().UTC(),
		},
	})
}

// generateBatch expands the request into count prioritized items and runs
// them through the generator matching the asset's modality.
func (a *App) generateBatch(ctx context.Context, assetType domain.AssetType, req assetsRequest, onProgress generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	items := make([]generators.AssetItem, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		prompt := req.Prompt
		if req.Count > 1 {
			prompt = fmt.Sprintf("%s (variation %d)", req.Prompt, i+1)
		}
		items = append(items, generators.AssetItem{
			AssetType: assetType,
			Prompt:    prompt,
			Style:     req.Style,
			Size:      req.Size,
			Priority:  domain.Priority(req.Priority),
		})
	}
	if assetType.Modality() == domain.ModalityAudio {
		return a.Audio.Generate(ctx, generators.AudioBrief{Items: items, Provider: req.Provider}, onProgress)
	}
	return a.Visual.Generate(ctx, generators.VisualBrief{Items: items, Provider: req.Provider}, onProgress)
}

type assetView struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	URL      string               `json:"url,omitempty"`
	Metadata domain.AssetMetadata `json:"metadata"`
}

// assetPayload persists inline payloads to storage so responses carry URLs
// rather than raw bytes. Assets a provider already hosted keep their URL.
func (a *App) assetPayload(ctx context.Context, jobID string, assets []domain.GeneratedAsset) []assetView {
	views := make([]assetView, 0, len(assets))
	for i, asset := range assets {
		view := assetView{ID: asset.ID, Type: string(asset.Type), URL: asset.URL, Metadata: asset.Metadata}
		if view.URL == "" && len(asset.Content) > 0 && a.Store != nil {
			owner := jobID
			if owner == "" {
				owner = asset.ID
			}
			key, err := a.Store.WriteAsset(ctx, owner, i, asset.Metadata.Format, asset.Content)
			if err != nil {
				a.Logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("could not persist asset payload")
			} else {
				view.URL = a.Store.URLFor(key)
			}
		}
		views = append(views, view)
	}
	return views
}
