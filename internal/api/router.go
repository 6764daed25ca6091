package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter wires the HTTP listener: status page, device info and the
// read-only JSON API.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.withRequestID, s.accessLog, s.allowLANReads)

	r.Get("/", s.handleStatusPage)
	r.Get("/info", s.handleInfo)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/entities", s.handleListEntities)
		r.Get("/ha-states", s.handleListHAStates)
		r.Get("/history/{entityID}", s.handleGetHistory)
	})

	return r
}

// buildWSRouter creates the router for the WebSocket listener.
func (s *Server) buildWSRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.accessLog)

	path := s.wsCfg.Path
	if path == "" {
		path = "/"
	}
	r.Get(path, s.engine.ServeHTTP)

	return r
}
