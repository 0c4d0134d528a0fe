package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amex-reconcile/internal/api/dto"
	"github.com/eshaffer321/amex-reconcile/internal/api/handlers"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
)

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedRun(t *testing.T, repo *storage.MockRepository, workbook string, started time.Time) string {
	t.Helper()
	run := &storage.Run{WorkbookPath: workbook, StartedAt: started, StatementStart: "2024-01-04"}
	require.NoError(t, repo.StartRun(run))
	require.NoError(t, repo.SaveMatches(run.ID, []storage.MatchRecord{
		{InvoicePath: "/inv/cloudflare.pdf", FileName: "cloudflare.pdf", Vendor: "CLOUDFLARE", Amount: "20.00", Strategy: "exact_amount_date", Rows: []int{0}},
	}))
	require.NoError(t, repo.SaveUnmatched(run.ID, []storage.UnmatchedRecord{
		{InvoicePath: "/inv/scan.pdf", FileName: "scan.pdf", Vendor: "Unknown", Status: "failed"},
	}))
	require.NoError(t, repo.CompleteRun(run.ID, storage.RunSummary{InvoiceCount: 2, MatchedCount: 1, UnmatchedCount: 1}))
	return run.ID
}

func TestRunsHandler_List(t *testing.T) {
	t.Run("returns empty list when no runs", func(t *testing.T) {
		handler := handlers.NewRunsHandler(handlers.NewBase(storage.NewMockRepository(), nil))

		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.Runs)
		assert.NotNil(t, response.Runs, "encodes as [] not null")
		assert.Equal(t, 0, response.Count)
	})

	t.Run("returns runs newest first with limit", func(t *testing.T) {
		// Arrange
		repo := storage.NewMockRepository()
		base := time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "jan.xlsx", base)
		seedRun(t, repo, "feb.xlsx", base.Add(time.Hour))
		seedRun(t, repo, "mar.xlsx", base.Add(2*time.Hour))
		handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

		// Act
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil))

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "mar.xlsx", response.Runs[0].WorkbookPath)
		assert.Equal(t, "completed", response.Runs[0].Status)
		assert.Equal(t, 1, response.Runs[0].MatchedCount)
		assert.NotEmpty(t, response.Runs[0].CompletedAt)
	})

	t.Run("rejects out of range limit", func(t *testing.T) {
		handler := handlers.NewRunsHandler(handlers.NewBase(storage.NewMockRepository(), nil))

		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=0", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeBadRequest, apiErr.Code)
	})
}

func TestRunsHandler_Get(t *testing.T) {
	repo := storage.NewMockRepository()
	id := seedRun(t, repo, "feb.xlsx", time.Now())
	handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

	t.Run("returns the run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/api/runs/"+id, nil), id))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, id, response.ID)
		assert.Equal(t, "2024-01-04", response.StatementStart)
	})

	t.Run("404 for unknown run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil), "nope"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, "run not found", apiErr.Message)
	})
}

func TestRunsHandler_MatchesAndUnmatched(t *testing.T) {
	repo := storage.NewMockRepository()
	id := seedRun(t, repo, "feb.xlsx", time.Now())
	handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

	t.Run("matches", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Matches(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), id))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.MatchListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "exact_amount_date", response.Matches[0].Strategy)
		assert.Equal(t, []int{0}, response.Matches[0].Rows)
	})

	t.Run("unmatched", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Unmatched(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), id))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.UnmatchedListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "scan.pdf", response.Unmatched[0].FileName)
	})

	t.Run("unknown run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Matches(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "nope"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// failingRepo returns an error from every journal query
type failingRepo struct {
	*storage.MockRepository
}

func (failingRepo) ListRuns(int) ([]storage.Run, error) { return nil, errors.New("database is locked") }

func TestRunsHandler_InternalError(t *testing.T) {
	handler := handlers.NewRunsHandler(handlers.NewBase(failingRepo{storage.NewMockRepository()}, nil))

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}
