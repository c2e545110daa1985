package handlers

import (
	"net/http"
	"strings"

	"gameforge/internal/orchestrator"
)

type composeRequest struct {
	Name            string `json:"name"`
	Prompt          string `json:"prompt"`
	GameType        string `json:"gameType"`
	Genre           string `json:"genre"`
	Tone            string `json:"tone"`
	ArtStyle        string `json:"artStyle"`
	Provider        string `json:"provider"`
	GenerateStory   *bool  `json:"generateStory"`
	GenerateVisuals *bool  `json:"generateVisuals"`
	GenerateAudio   *bool  `json:"generateAudio"`
}

// ComposeProject handles POST /api/ai/compose-project. Pipelines default to
// enabled; the artifact always comes back, with failures in its report.
func (a *App) ComposeProject(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	enabled := func(flag *bool) bool { return flag == nil || *flag }
	artifact := a.Orchestrator.ComposeProject(r.Context(), orchestrator.ProjectRequest{
		Name:            req.Name,
		Prompt:          req.Prompt,
		GameType:        req.GameType,
		Genre:           req.Genre,
		Tone:            req.Tone,
		ArtStyle:        req.ArtStyle,
		Provider:        req.Provider,
		GenerateStory:   enabled(req.GenerateStory),
		GenerateVisuals: enabled(req.GenerateVisuals),
		GenerateAudio:   enabled(req.GenerateAudio),
	})
	a.json(w, http.StatusOK, artifact)
}

// Usage handles GET /api/ai/usage.
func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	stats := a.Governor.Stats()
	a.json(w, http.StatusOK, map[string]any{
		"requestsThisMinute": stats.RequestsThisMinute,
		"inFlight":           stats.InFlight,
		"totalCostUsd":       stats.TotalCostUSD,
		"monthlyBudgetUsd":   stats.MonthlyBudgetUSD,
		"budgetExceeded":     stats.BudgetExceeded,
	})
}
