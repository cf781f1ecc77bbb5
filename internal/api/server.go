// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes review sessions over HTTP. Handlers are thin
// adapters over the session engine and the store; stage rules stay in
// internal/session.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/review-engine/internal/session"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Server routes HTTP requests to the session engine.
type Server struct {
	engine *session.Engine
	store  *store.Store
	cfg    types.ReviewConfig
}

// NewServer builds a Server.
func NewServer(engine *session.Engine, st *store.Store, cfg types.ReviewConfig) *Server {
	return &Server{engine: engine, store: st, cfg: cfg}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/sessions", s.createSession)
	r.Get("/sessions", s.listSessions)
	r.Get("/sessions/{id}", s.getSession)
	r.Delete("/sessions/{id}", s.deleteSession)
	r.Post("/sessions/{id}/question", s.submitQuestion)
	r.Post("/sessions/{id}/papers/{paperID}/capture", s.capturePaper)
	r.Post("/sessions/{id}/capture", s.captureAll)
	r.Get("/sessions/{id}/findings", s.searchFindings)
	r.Post("/sessions/{id}/synthesize", s.synthesize)
	r.Post("/sessions/{id}/write", s.writeDraft)
	r.Post("/sessions/{id}/finalize", s.finalize)
	r.Post("/sessions/{id}/reset", s.reset)
	r.Get("/sessions/{id}/report", s.getReport)
	r.Get("/sessions/{id}/export", s.exportSession)
	r.Get("/preferences/{key}", s.getPreference)
	r.Put("/preferences/{key}", s.setPreference)
	r.Get("/health", s.health)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v to w with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine and store errors to HTTP statuses: guard
// violations and busy sessions are conflicts, unknown IDs are 404, a
// failed collaborator call is a bad gateway, and empty input is a bad
// request.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrUnknownPaper):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrEmptyQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrStage), errors.Is(err, session.ErrNoPapers):
		status = http.StatusConflict
	case errors.Is(err, session.ErrCollaborator):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
