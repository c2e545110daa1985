package infra

import (
	"net/http"
	"time"
)

// NewHTTPServer builds the API server with the configured timeouts. The
// write timeout defaults generously because sync asset generation can hold a
// response open for the length of a provider call.
func NewHTTPServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}
