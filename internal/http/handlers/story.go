package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gameforge/internal/dispatch"
	"gameforge/internal/generators"
	"gameforge/internal/governor"
)

type storyRequest struct {
	Prompt   string `json:"prompt"`
	GameType string `json:"gameType"`
	Genre    string `json:"genre"`
	Tone     string `json:"tone"`
	Length   string `json:"length"`
	Provider string `json:"provider"`
}

// GenerateStory handles POST /api/ai/generate-story.
func (a *App) GenerateStory(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	story, err := a.Story.Generate(r.Context(), generators.StoryBrief{
		Prompt:   req.Prompt,
		GameType: req.GameType,
		Genre:    req.Genre,
		Tone:     req.Tone,
		Length:   req.Length,
		Provider: req.Provider,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":    story.ID,
		"story": story,
		"metadata": map[string]any{
			"provider":    story.Provider,
			"generatedAt": time.Now().UTC(),
		},
	})
}

// generationError maps pipeline failures onto the uniform error shape.
// Exhausted fallback chains made of throttling denials surface as 429,
// everything else as a 502 naming each failed provider.
func (a *App) generationError(w http.ResponseWriter, err error) {
	if errors.Is(err, governor.ErrRateLimited) || errors.Is(err, governor.ErrConcurrencyExceeded) {
		a.error(w, http.StatusTooManyRequests, "generation capacity exhausted, retry later", nil)
		return
	}
	var agg *dispatch.AggregateError
	if errors.As(err, &agg) {
		details := make([]string, 0, len(agg.Attempts))
		for _, attempt := range agg.Attempts {
			details = append(details, attempt.Provider+": "+attempt.Err.Error())
		}
		a.error(w, http.StatusBadGateway, "all providers failed", details)
		return
	}
	a.error(w, http.StatusBadGateway, err.Error(), nil)
}
