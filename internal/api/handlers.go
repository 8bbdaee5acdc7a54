// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/session"
)

type sessionRequest struct {
	VideoID int64 `json:"videoId"`
	PlayID  int64 `json:"playId"`
}

type rateRequest struct {
	Rate float64 `json:"rate"`
}

type sessionResponse struct {
	session.Snapshot
	Route Route `json:"route"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.deps.Gateway.Home(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Gateway.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []model.Category{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.deps.Gateway.Category(r.Context(), chi.URLParam(r, "category"), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keywords := strings.TrimSpace(r.URL.Query().Get("keywords"))
	if keywords == "" {
		writeError(w, r, badRequest("keywords is required"))
		return
	}
	page, err := pageParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.deps.Gateway.Search(r.Context(), keywords, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.deps.Gateway.DetailPage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.deps.Gateway.FetchRecommended(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []model.Video{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		Snapshot: s.deps.Controller.Snapshot(),
		Route:    s.deps.Router.Current(),
	})
}

// handlePutSession navigates the play route. Session outcomes such as an
// unknown entry are part of the returned snapshot; only superseded requests
// and malformed input are errors.
func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.VideoID <= 0 || req.PlayID <= 0 {
		writeError(w, r, badRequest("videoId and playId must be positive"))
		return
	}

	err := s.deps.Router.Push(r.Context(), req.VideoID, req.PlayID)
	resp := sessionResponse{Snapshot: s.deps.Controller.Snapshot(), Route: s.deps.Router.Current()}
	switch code, _ := classify(err); {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case code == http.StatusConflict:
		writeError(w, r, err)
	default:
		// The session reached a terminal shell state; report it with the snapshot.
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Controller.Exit(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.deps.Router.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Controller.SetPlaybackRate(r.Context(), req.Rate); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"rate": req.Rate})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req model.Report
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := s.deps.Gateway.SubmitReport(r.Context(), req.Text, req.VideoID, req.EntryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeJSON(w, http.StatusOK, []model.PlayRecord{})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, badRequest("invalid limit %q", raw))
			return
		}
		limit = n
	}
	out, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, badRequest("invalid page %q", raw)
	}
	return page, nil
}
