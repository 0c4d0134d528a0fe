package storage

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one reconciliation of a workbook.
type Run struct {
	ID             string     `json:"id"`
	WorkbookPath   string     `json:"workbook_path"`
	InvoiceDir     string     `json:"invoice_dir,omitempty"`
	StatementStart string     `json:"statement_start,omitempty"`
	StatementEnd   string     `json:"statement_end,omitempty"`
	DryRun         bool       `json:"dry_run"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Status         RunStatus  `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	RunSummary
}

// RunSummary holds the counts recorded when a run completes.
type RunSummary struct {
	InvoiceCount     int `json:"invoice_count"`
	TransactionCount int `json:"transaction_count"`
	MatchedCount     int `json:"matched_count"`
	UnmatchedCount   int `json:"unmatched_count"`
	ExtractedCount   int `json:"extracted_count"`
	ExtractionFailed int `json:"extraction_failed"`
}

// MatchRecord is one matched invoice. Amount is a decimal string, empty
// when the invoice had none.
type MatchRecord struct {
	RunID       string `json:"run_id"`
	InvoicePath string `json:"invoice_path"`
	FileName    string `json:"file_name"`
	Vendor      string `json:"vendor"`
	Amount      string `json:"amount,omitempty"`
	Strategy    string `json:"strategy"`
	Rows        []int  `json:"rows"`
}

// UnmatchedRecord is one invoice no strategy matched.
type UnmatchedRecord struct {
	RunID       string `json:"run_id"`
	InvoicePath string `json:"invoice_path"`
	FileName    string `json:"file_name"`
	Vendor      string `json:"vendor"`
	Amount      string `json:"amount,omitempty"`
	Date        string `json:"date,omitempty"`
	Status      string `json:"status"`
}
