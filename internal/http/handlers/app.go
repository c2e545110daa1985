// Package handlers implements the HTTP surface of the generation API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/generators"
	"gameforge/internal/governor"
	"gameforge/internal/jobs"
	"gameforge/internal/orchestrator"
	"gameforge/internal/storage"
)

// CodeMaker is the code generation surface the handlers call.
type CodeMaker interface {
	Generate(ctx context.Context, brief generators.CodeBrief) (*generators.CodeResult, error)
}

// Composer runs a full project composition.
type Composer interface {
	ComposeProject(ctx context.Context, req orchestrator.ProjectRequest) *domain.GameProjectArtifact
}

// HealthChecker reports whether the local inference service can take work.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// UsageReporter exposes governor counters for the usage endpoint.
type UsageReporter interface {
	Stats() governor.UsageStats
}

// App bundles the dependencies of all handlers.
type App struct {
	Logger       zerolog.Logger
	Governor     UsageReporter
	Tracker      *jobs.Tracker
	Story        orchestrator.StoryMaker
	Visual       orchestrator.VisualMaker
	Audio        orchestrator.AudioMaker
	Code         CodeMaker
	Orchestrator Composer
	Store        *storage.FileStore

	// LocalInference is nil when the local service is not configured. The
	// async asset path is taken only when it heads the image chain and
	// answers its health check.
	LocalInference HealthChecker
	ImageOrder     []string
	MaxBatch       int
	ProgressConfig jobs.ProgressConfig

	// BackgroundCtx outlives individual requests; async jobs run on it so
	// a client disconnect does not cancel generation.
	BackgroundCtx context.Context
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": v})
}

func (a *App) error(w http.ResponseWriter, code int, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]any{"message": message}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": body})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}
