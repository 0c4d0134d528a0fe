package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// Storage provides SQLite database access for the run journal.
// It implements the Repository interface.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps the foreign_keys pragma in effect for every query.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun inserts a running run. A blank ID is replaced with a new UUID.
func (s *Storage) StartRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	run.Status = RunStatusRunning

	_, err := s.db.Exec(`
	INSERT INTO runs (id, workbook_path, invoice_dir, statement_start, statement_end,
	                  dry_run, started_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.WorkbookPath, run.InvoiceDir, run.StatementStart, run.StatementEnd,
		run.DryRun, run.StartedAt, run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// CompleteRun records the summary and marks the run completed
func (s *Storage) CompleteRun(runID string, summary RunSummary) error {
	res, err := s.db.Exec(`
	UPDATE runs
	SET completed_at = ?, status = ?, invoice_count = ?, transaction_count = ?,
	    matched_count = ?, unmatched_count = ?, extracted_count = ?, extraction_failed = ?
	WHERE id = ?`,
		s.now(), RunStatusCompleted, summary.InvoiceCount, summary.TransactionCount,
		summary.MatchedCount, summary.UnmatchedCount, summary.ExtractedCount, summary.ExtractionFailed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return requireAffected(res, runID)
}

// FailRun marks the run failed
func (s *Storage) FailRun(runID string, errMsg string) error {
	res, err := s.db.Exec(`UPDATE runs SET completed_at = ?, status = ?, error_message = ? WHERE id = ?`,
		s.now(), RunStatusFailed, errMsg, runID)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return requireAffected(res, runID)
}

func requireAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, workbook_path, invoice_dir, statement_start, statement_end, dry_run,
	started_at, completed_at, status, error_message, invoice_count, transaction_count,
	matched_count, unmatched_count, extracted_count, extraction_failed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		run       Run
		completed sql.NullTime
	)
	err := sc.Scan(
		&run.ID, &run.WorkbookPath, &run.InvoiceDir, &run.StatementStart, &run.StatementEnd, &run.DryRun,
		&run.StartedAt, &completed, &run.Status, &run.ErrorMessage, &run.InvoiceCount, &run.TransactionCount,
		&run.MatchedCount, &run.UnmatchedCount, &run.ExtractedCount, &run.ExtractionFailed,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// SaveMatches stores the matched invoices of a run in one transaction
func (s *Storage) SaveMatches(runID string, matches []MatchRecord) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
		INSERT INTO run_matches (run_id, invoice_path, file_name, vendor, amount, strategy, rows_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range matches {
			rowsJSON, err := json.Marshal(m.Rows)
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(runID, m.InvoicePath, m.FileName, m.Vendor, m.Amount, m.Strategy, string(rowsJSON)); err != nil {
				return fmt.Errorf("failed to save match %s: %w", m.FileName, err)
			}
		}
		return nil
	})
}

// SaveUnmatched stores the unmatched invoices of a run in one transaction
func (s *Storage) SaveUnmatched(runID string, unmatched []UnmatchedRecord) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
		INSERT INTO run_unmatched (run_id, invoice_path, file_name, vendor, amount, invoice_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, u := range unmatched {
			if _, err := stmt.Exec(runID, u.InvoicePath, u.FileName, u.Vendor, u.Amount, u.Date, u.Status); err != nil {
				return fmt.Errorf("failed to save unmatched %s: %w", u.FileName, err)
			}
		}
		return nil
	})
}

// GetMatches returns a run's matches in the order they were made
func (s *Storage) GetMatches(runID string) ([]MatchRecord, error) {
	rows, err := s.db.Query(`
	SELECT run_id, invoice_path, file_name, vendor, amount, strategy, rows_json
	FROM run_matches WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	matches := make([]MatchRecord, 0)
	for rows.Next() {
		var (
			m        MatchRecord
			rowsJSON string
		)
		if err := rows.Scan(&m.RunID, &m.InvoicePath, &m.FileName, &m.Vendor, &m.Amount, &m.Strategy, &rowsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rowsJSON), &m.Rows); err != nil {
			return nil, fmt.Errorf("failed to decode rows of %s: %w", m.FileName, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetUnmatched returns a run's unmatched invoices in report order
func (s *Storage) GetUnmatched(runID string) ([]UnmatchedRecord, error) {
	rows, err := s.db.Query(`
	SELECT run_id, invoice_path, file_name, vendor, amount, invoice_date, status
	FROM run_unmatched WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unmatched: %w", err)
	}
	defer rows.Close()

	unmatched := make([]UnmatchedRecord, 0)
	for rows.Next() {
		var u UnmatchedRecord
		if err := rows.Scan(&u.RunID, &u.InvoicePath, &u.FileName, &u.Vendor, &u.Amount, &u.Date, &u.Status); err != nil {
			return nil, err
		}
		unmatched = append(unmatched, u)
	}
	return unmatched, rows.Err()
}

func (s *Storage) inTx(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
