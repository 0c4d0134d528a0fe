package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/amex-reconcile/internal/api/dto"
)

// RunsHandler serves the run journal.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(base *Base) *RunsHandler {
	return &RunsHandler{Base: base}
}

// RequireJournal answers 503 for every route when no journal is configured.
func (h *RunsHandler) RequireJournal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.repo == nil {
			h.WriteError(w, http.StatusServiceUnavailable, dto.UnavailableError("run journal is not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 20)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("limit must be between 1 and 200"))
		return
	}

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, dto.NewRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.NewRunResponse(*run))
}

// Matches handles GET /api/runs/{id}/matches
func (h *RunsHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.repo.GetRun(id); err != nil {
		h.writeRepoError(w, r, err)
		return
	}

	matches, err := h.repo.GetMatches(id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.MatchListResponse{RunID: id, Matches: matches, Count: len(matches)})
}

// Unmatched handles GET /api/runs/{id}/unmatched
func (h *RunsHandler) Unmatched(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.repo.GetRun(id); err != nil {
		h.writeRepoError(w, r, err)
		return
	}

	unmatched, err := h.repo.GetUnmatched(id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.UnmatchedListResponse{RunID: id, Unmatched: unmatched, Count: len(unmatched)})
}
