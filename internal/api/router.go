package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Remote tree endpoints
		r.Route("/remotes", func(r chi.Router) {
			r.Get("/", s.handleListRemotes)
			r.Post("/", s.handleCreateRemote)

			r.Route("/{remote}", func(r chi.Router) {
				r.Get("/", s.handleGetRemote)
				r.Delete("/", s.handleDeleteRemote)
				r.Get("/attrs/{attr}", s.handleGetRemoteAttr)

				r.Route("/keymaps", func(r chi.Router) {
					r.Get("/", s.handleListKeymaps)
					r.Post("/", s.handleCreateKeymap)

					r.Route("/{keymap}", func(r chi.Router) {
						r.Get("/", s.handleGetKeymap)
						r.Delete("/", s.handleDeleteKeymap)
						r.Get("/attrs/{attr}", s.handleGetKeymapAttr)
						r.Put("/attrs/{attr}", s.handleSetKeymapAttr)
					})
				})
			})
		})

		// Manual signal injection (testing aid)
		r.Post("/translate", s.handleTranslate)

		// Signal log query
		r.Get("/signals", s.handleListSignals)

		// WebSocket translation event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"remotes": len(s.registry.RemoteNames()),
	})
}
