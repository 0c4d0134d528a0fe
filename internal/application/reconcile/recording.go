package reconcile

import (
	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/amex-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
)

// Journal writes are best effort: a failure is logged and the run goes on.

func (o *Orchestrator) startRun(wb Workbook, opts Options) string {
	if o.storage == nil {
		return ""
	}
	run := &storage.Run{
		WorkbookPath: wb.Path(),
		InvoiceDir:   opts.InvoiceDir,
		DryRun:       opts.DryRun,
	}
	if !opts.Window.Start.IsZero() {
		run.StatementStart = opts.Window.Start.String()
	}
	if !opts.Window.End.IsZero() {
		run.StatementEnd = opts.Window.End.String()
	}
	if err := o.storage.StartRun(run); err != nil {
		o.logger.Error("Failed to start run record", "error", err)
		return ""
	}
	return run.ID
}

func (o *Orchestrator) failRun(runID string, cause error) {
	if o.storage == nil || runID == "" {
		return
	}
	if err := o.storage.FailRun(runID, cause.Error()); err != nil {
		o.logger.Error("Failed to record run failure", "run_id", runID, "error", err)
	}
}

func (o *Orchestrator) completeRun(runID string, result *Result) {
	if o.storage == nil || runID == "" {
		return
	}
	report := result.Report

	if err := o.storage.SaveMatches(runID, matchRecords(report.Matches)); err != nil {
		o.logger.Error("Failed to save matches", "run_id", runID, "error", err)
	}
	if err := o.storage.SaveUnmatched(runID, unmatchedRecords(report.Unmatched)); err != nil {
		o.logger.Error("Failed to save unmatched invoices", "run_id", runID, "error", err)
	}

	summary := storage.RunSummary{
		InvoiceCount:     report.InvoiceCount,
		TransactionCount: report.TransactionCount,
		MatchedCount:     report.MatchedCount(),
		UnmatchedCount:   len(report.Unmatched),
		ExtractedCount:   result.Extracted,
		ExtractionFailed: result.ExtractionFailed,
	}
	if err := o.storage.CompleteRun(runID, summary); err != nil {
		o.logger.Error("Failed to complete run record", "run_id", runID, "error", err)
	}
}

func matchRecords(matches []matcher.Match) []storage.MatchRecord {
	records := make([]storage.MatchRecord, 0, len(matches))
	for _, m := range matches {
		rec := storage.MatchRecord{
			InvoicePath: m.InvoicePath,
			FileName:    m.FileName,
			Vendor:      m.Vendor,
			Strategy:    m.Kind.String(),
			Rows:        m.Rows,
		}
		if m.Amount.Valid {
			rec.Amount = m.Amount.Decimal.StringFixed(2)
		}
		records = append(records, rec)
	}
	return records
}

func unmatchedRecords(invoices []ledger.InvoiceRecord) []storage.UnmatchedRecord {
	records := make([]storage.UnmatchedRecord, 0, len(invoices))
	for _, inv := range invoices {
		records = append(records, storage.UnmatchedRecord{
			InvoicePath: inv.FilePath,
			FileName:    inv.FileName,
			Vendor:      inv.Vendor,
			Amount:      inv.AmountString(),
			Date:        inv.Date.String(),
			Status:      string(inv.Status),
		})
	}
	return records
}
