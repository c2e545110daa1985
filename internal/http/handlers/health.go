package handlers

import "net/http"

// Health handles GET /healthz.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}
	if a.LocalInference != nil {
		payload["localInference"] = a.LocalInference.Healthy(r.Context())
	}
	a.json(w, http.StatusOK, payload)
}
