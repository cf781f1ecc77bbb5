// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/review-engine/internal/export"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/pkg/types"
)

type createSessionRequest struct {
	ReviewType string `json:"review_type"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
			return
		}
	}

	rt := types.ReviewSLR
	if req.ReviewType != "" {
		rt = types.ParseReviewType(req.ReviewType)
	}

	sess, err := s.engine.Create(r.Context(), rt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type questionRequest struct {
	Question     string `json:"question"`
	AlsoConsider string `json:"also_consider"`
}

func (s *Server) submitQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	sess, err := s.engine.SubmitQuestion(r.Context(), chi.URLParam(r, "id"), req.Question, req.AlsoConsider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) capturePaper(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CapturePaper(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paperID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) captureAll(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CaptureAll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) searchFindings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	matches, err := s.store.SearchFindings(r.Context(), chi.URLParam(r, "id"), query, s.cfg.Store.MaxResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) synthesize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Synthesize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) writeDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.WriteDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Finalize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type reportResponse struct {
	Report   report.Report `json:"report"`
	Complete bool          `json:"complete"`
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	rep := s.engine.Report(sess)
	writeJSON(w, http.StatusOK, reportResponse{Report: rep, Complete: rep.Complete()})
}

// exportSession streams the rendered export. The format query parameter
// selects text (default) or html.
func (s *Server) exportSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	rep := s.engine.Report(sess)

	switch format := r.URL.Query().Get("format"); format {
	case "", "txt", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		export.Text(sess, rep, w)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		export.HTML(sess, rep, w)
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		export.YAML(sess, rep, w)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown export format %q", format)})
	}
}

type preferenceResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) getPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	val, err := s.store.GetPreference(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceResponse{Key: key, Value: val})
}

func (s *Server) setPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	key := chi.URLParam(r, "key")
	if err := s.store.SetPreference(r.Context(), key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceResponse{Key: key, Value: req.Value})
}
