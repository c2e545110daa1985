package handlers

import (
	"net/http"
	"strings"
	"time"

	"gameforge/internal/generators"
)

type codeRequest struct {
	Prompt     string `json:"prompt"`
	Language   string `json:"language"`
	Framework  string `json:"framework"`
	GameType   string `json:"gameType"`
	Complexity string `json:"complexity"`
	Provider   string `json:"provider"`
}

// GenerateCode handles POST /api/ai/generate-code.
func (a *App) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	result, err := a.Code.Generate(r.Context(), generators.CodeBrief{
		Prompt:     req.Prompt,
		Language:   req.Language,
		Framework:  req.Framework,
		GameType:   req.GameType,
		Complexity: req.Complexity,
		Provider:   req.Provider,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":   result.ID,
		"code": result.Code,
		"metadata": map[string]any{
			"language":    result.Language,
			"provider":    result.Provider,
			"generatedAt": time.Now().UTC(),
		},
	})
}
