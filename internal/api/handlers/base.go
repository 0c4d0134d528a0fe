package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eshaffer321/amex-reconcile/internal/api/dto"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
)

const maxListLimit = 200

// Base provides shared functionality for all handlers.
type Base struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{repo: repo, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// writeRepoError maps journal errors onto responses.
func (b *Base) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrRunNotFound) {
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
		return
	}
	b.logger.Error("journal query failed", "path", r.URL.Path, "error", err)
	b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// parseLimit reads ?limit=, rejecting values outside 1..maxListLimit.
func parseLimit(r *http.Request, defaultVal int) (int, bool) {
	limit := ParseIntParam(r, "limit", defaultVal)
	if limit < 1 || limit > maxListLimit {
		return 0, false
	}
	return limit, true
}
