package dto

import (
	"time"

	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Journal   string `json:"journal"` // "enabled" or "disabled"
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse(journal bool) HealthResponse {
	state := "disabled"
	if journal {
		state = "enabled"
	}
	return HealthResponse{
		Status:    "ok",
		Journal:   state,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RunResponse represents a reconciliation run.
type RunResponse struct {
	ID               string `json:"id"`
	WorkbookPath     string `json:"workbook_path"`
	InvoiceDir       string `json:"invoice_dir,omitempty"`
	StatementStart   string `json:"statement_start,omitempty"`
	StatementEnd     string `json:"statement_end,omitempty"`
	DryRun           bool   `json:"dry_run"`
	StartedAt        string `json:"started_at"`
	CompletedAt      string `json:"completed_at,omitempty"`
	Status           string `json:"status"`
	ErrorMessage     string `json:"error_message,omitempty"`
	InvoiceCount     int    `json:"invoice_count"`
	TransactionCount int    `json:"transaction_count"`
	MatchedCount     int    `json:"matched_count"`
	UnmatchedCount   int    `json:"unmatched_count"`
	ExtractedCount   int    `json:"extracted_count"`
	ExtractionFailed int    `json:"extraction_failed"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// MatchListResponse lists the matches of one run.
type MatchListResponse struct {
	RunID   string                `json:"run_id"`
	Matches []storage.MatchRecord `json:"matches"`
	Count   int                   `json:"count"`
}

// UnmatchedListResponse lists the unmatched invoices of one run.
type UnmatchedListResponse struct {
	RunID     string                    `json:"run_id"`
	Unmatched []storage.UnmatchedRecord `json:"unmatched"`
	Count     int                       `json:"count"`
}

// NewRunResponse converts a journal run.
func NewRunResponse(run storage.Run) RunResponse {
	resp := RunResponse{
		ID:               run.ID,
		WorkbookPath:     run.WorkbookPath,
		InvoiceDir:       run.InvoiceDir,
		StatementStart:   run.StatementStart,
		StatementEnd:     run.StatementEnd,
		DryRun:           run.DryRun,
		StartedAt:        run.StartedAt.UTC().Format(time.RFC3339),
		Status:           string(run.Status),
		ErrorMessage:     run.ErrorMessage,
		InvoiceCount:     run.InvoiceCount,
		TransactionCount: run.TransactionCount,
		MatchedCount:     run.MatchedCount,
		UnmatchedCount:   run.UnmatchedCount,
		ExtractedCount:   run.ExtractedCount,
		ExtractionFailed: run.ExtractionFailed,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
