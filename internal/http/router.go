// Package httpapi wires the handlers into the chi router.
package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gameforge/internal/http/handlers"
	"gameforge/internal/middleware"
)

// RouterConfig carries the HTTP-surface knobs the router needs.
type RouterConfig struct {
	RateLimitPerMin int
	AllowedOrigins  []string

	// StaticDir, when set, is served under /static/ so persisted asset
	// URLs resolve without a separate file server.
	StaticDir string
}

func NewRouter(app *handlers.App, cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestLogger(app.Logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	r.Get("/healthz", app.Health)

	if cfg.StaticDir != "" {
		fileServer := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(cfg.StaticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	r.Route("/api/ai", func(r chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		}
		r.Post("/generate-story", app.GenerateStory)
		r.Post("/generate-assets", app.GenerateAssets)
		r.Post("/generate-code", app.GenerateCode)
		r.Post("/compose-project", app.ComposeProject)
		r.Get("/jobs/{jobID}", app.GetJob)
		r.Get("/usage", app.Usage)
	})

	return r
}
