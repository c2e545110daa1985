package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gameforge/internal/domain"
)

// GetJob handles GET /api/ai/jobs/{jobID}.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := a.Tracker.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found", nil)
			return
		}
		a.error(w, http.StatusInternalServerError, "could not load job", nil)
		return
	}

	payload := map[string]any{
		"jobId":     job.ID,
		"status":    string(job.Status),
		"progress":  job.Progress,
		"assetType": string(job.AssetType),
		"prompt":    job.Prompt,
		"createdAt": job.CreatedAt,
		"updatedAt": job.UpdatedAt,
	}
	if job.ErrorMessage != "" {
		payload["error"] = job.ErrorMessage
	}
	if len(job.ResultJSON) > 0 {
		payload["result"] = json.RawMessage(job.ResultJSON)
	}
	a.json(w, http.StatusOK, payload)
}
