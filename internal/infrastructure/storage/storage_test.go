package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStorage_RunsMigrations(t *testing.T) {
	store := newTestStorage(t)

	version, err := schemaVersion(context.Background(), store.db)

	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"runs", "run_matches", "run_unmatched", "goose_db_version"} {
		var n int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s should exist", table)
	}
}

func TestNewStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.StartRun(&Run{WorkbookPath: "book.xlsx"}))
	require.NoError(t, first.Close())

	second, err := NewStorage(path)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "migrations are not re-applied over existing data")
}

func TestStorage_RunLifecycle(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	run := &Run{
		WorkbookPath:   "/books/2024-02.xlsx",
		InvoiceDir:     "/invoices/feb",
		StatementStart: "2024-01-04",
		StatementEnd:   "2024-02-03",
		DryRun:         true,
	}

	// Act
	require.NoError(t, store.StartRun(run))
	require.NoError(t, store.CompleteRun(run.ID, RunSummary{
		InvoiceCount: 10, TransactionCount: 42, MatchedCount: 8, UnmatchedCount: 2,
		ExtractedCount: 9, ExtractionFailed: 1,
	}))

	// Assert
	assert.Len(t, run.ID, 36, "run IDs are UUIDs")

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "/invoices/feb", got.InvoiceDir)
	assert.Equal(t, "2024-02-03", got.StatementEnd)
	assert.True(t, got.DryRun)
	assert.Equal(t, 8, got.MatchedCount)
	assert.Equal(t, 1, got.ExtractionFailed)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, time.Now(), got.StartedAt, time.Minute)
}

func TestStorage_FailRun(t *testing.T) {
	store := newTestStorage(t)
	run := &Run{WorkbookPath: "book.xlsx"}
	require.NoError(t, store.StartRun(run))

	require.NoError(t, store.FailRun(run.ID, "invalid invoice table: missing column"))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "invalid invoice table: missing column", got.ErrorMessage)
}

func TestStorage_UnknownRun(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, store.CompleteRun("missing", RunSummary{}), ErrRunNotFound)
	assert.ErrorIs(t, store.FailRun("missing", "boom"), ErrRunNotFound)
}

func TestStorage_ListRuns_NewestFirst(t *testing.T) {
	store := newTestStorage(t)
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i, wb := range []string{"jan.xlsx", "feb.xlsx", "mar.xlsx"} {
		require.NoError(t, store.StartRun(&Run{WorkbookPath: wb, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := store.ListRuns(2)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "mar.xlsx", runs[0].WorkbookPath)
	assert.Equal(t, "feb.xlsx", runs[1].WorkbookPath)
}

func TestStorage_MatchesAndUnmatched(t *testing.T) {
	store := newTestStorage(t)
	run := &Run{WorkbookPath: "book.xlsx"}
	require.NoError(t, store.StartRun(run))

	matches := []MatchRecord{
		{InvoicePath: "/inv/cloudflare.pdf", FileName: "cloudflare.pdf", Vendor: "CLOUDFLARE", Amount: "20.00", Strategy: "exact_amount_date", Rows: []int{3}},
		{InvoicePath: "/inv/aws.pdf", FileName: "aws.pdf", Vendor: "AWS", Amount: "100.00", Strategy: "combination_sum", Rows: []int{0, 4, 7}},
	}
	unmatched := []UnmatchedRecord{
		{InvoicePath: "/inv/scan.pdf", FileName: "scan.pdf", Vendor: "Unknown", Status: "failed"},
	}

	require.NoError(t, store.SaveMatches(run.ID, matches))
	require.NoError(t, store.SaveUnmatched(run.ID, unmatched))

	gotMatches, err := store.GetMatches(run.ID)
	require.NoError(t, err)
	require.Len(t, gotMatches, 2)
	assert.Equal(t, run.ID, gotMatches[0].RunID)
	assert.Equal(t, []int{0, 4, 7}, gotMatches[1].Rows)
	assert.Equal(t, "combination_sum", gotMatches[1].Strategy)

	gotUnmatched, err := store.GetUnmatched(run.ID)
	require.NoError(t, err)
	require.Len(t, gotUnmatched, 1)
	assert.Equal(t, "failed", gotUnmatched[0].Status)
	assert.Empty(t, gotUnmatched[0].Amount)

	empty, err := store.GetMatches("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorage_SaveMatches_UnknownRun(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveMatches("missing", []MatchRecord{{InvoicePath: "/inv/a.pdf", FileName: "a.pdf", Strategy: "vendor_only"}})

	assert.Error(t, err, "foreign key rejects matches for a run that was never started")
}

func TestMockRepository(t *testing.T) {
	repo := NewMockRepository()
	run := &Run{WorkbookPath: "book.xlsx"}

	require.NoError(t, repo.StartRun(run))
	require.NoError(t, repo.SaveMatches(run.ID, []MatchRecord{{FileName: "a.pdf"}}))
	require.NoError(t, repo.CompleteRun(run.ID, RunSummary{MatchedCount: 1}))

	got, err := repo.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 1, got.MatchedCount)

	matches, err := repo.GetMatches(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, matches[0].RunID)

	_, err = repo.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
