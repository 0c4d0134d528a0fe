package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	runs      map[string]*Run
	matches   map[string][]MatchRecord
	unmatched map[string][]UnmatchedRecord

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	FailRunCalled     bool
	LastFailure       string

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	SaveMatchesErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:      make(map[string]*Run),
		matches:   make(map[string][]MatchRecord),
		unmatched: make(map[string][]UnmatchedRecord),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) StartRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return m.StartRunErr
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *MockRepository) CompleteRun(runID string, summary RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = RunStatusCompleted
	run.RunSummary = summary
	return nil
}

func (m *MockRepository) FailRun(runID string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalled = true
	m.LastFailure = errMsg
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = RunStatusFailed
	run.ErrorMessage = errMsg
	return nil
}

func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockRepository) GetRun(runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	copied := *run
	return &copied, nil
}

func (m *MockRepository) SaveMatches(runID string, matches []MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveMatchesErr != nil {
		return m.SaveMatchesErr
	}
	for _, rec := range matches {
		rec.RunID = runID
		m.matches[runID] = append(m.matches[runID], rec)
	}
	return nil
}

func (m *MockRepository) SaveUnmatched(runID string, unmatched []UnmatchedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range unmatched {
		rec.RunID = runID
		m.unmatched[runID] = append(m.unmatched[runID], rec)
	}
	return nil
}

func (m *MockRepository) GetMatches(runID string) ([]MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MatchRecord{}, m.matches[runID]...), nil
}

func (m *MockRepository) GetUnmatched(runID string) ([]UnmatchedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UnmatchedRecord{}, m.unmatched[runID]...), nil
}
