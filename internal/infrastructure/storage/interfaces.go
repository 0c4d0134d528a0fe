package storage

import "errors"

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	ResultRepository
	Close() error
}

// RunRepository handles run tracking
type RunRepository interface {
	// StartRun records the start of a run and fills in its ID
	StartRun(run *Run) error

	// CompleteRun records the counts of a finished run
	CompleteRun(runID string, summary RunSummary) error

	// FailRun marks a run as failed with the error that stopped it
	FailRun(runID string, errMsg string) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]Run, error)

	// GetRun retrieves a run by ID
	GetRun(runID string) (*Run, error)
}

// ResultRepository stores what a run matched and left unmatched
type ResultRepository interface {
	SaveMatches(runID string, matches []MatchRecord) error
	SaveUnmatched(runID string, unmatched []UnmatchedRecord) error
	GetMatches(runID string) ([]MatchRecord, error)
	GetUnmatched(runID string) ([]UnmatchedRecord, error)
}
