// Package reconcile runs a full reconciliation of one workbook: list the
// invoice folder, extract invoice fields, match them against the statement
// and write the results back.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/amex-reconcile/internal/adapters/invoicedir"
	"github.com/eshaffer321/amex-reconcile/internal/domain/extractor"
	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/amex-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/amex-reconcile/internal/domain/validator"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
)

// ErrNoInvoiceDir is returned when folder listing is requested without a folder.
var ErrNoInvoiceDir = errors.New("invoice folder not set")

// Orchestrator runs the reconcile process
type Orchestrator struct {
	text     extractor.TextSource
	ocr      extractor.TextSource
	patterns *extractor.Patterns
	matching matcher.CombinationConfig
	offset   int
	storage  storage.Repository
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOCR sets the OCR fallback used during extraction.
func WithOCR(src extractor.TextSource) Option {
	return func(o *Orchestrator) { o.ocr = src }
}

// WithPatterns replaces the built-in extraction patterns.
func WithPatterns(p *extractor.Patterns) Option {
	return func(o *Orchestrator) { o.patterns = p }
}

// WithMatching sets the combination bound and tolerance.
func WithMatching(cfg matcher.CombinationConfig) Option {
	return func(o *Orchestrator) { o.matching = cfg }
}

// WithSequenceOffset sets the first number written by sequencing.
func WithSequenceOffset(offset int) Option {
	return func(o *Orchestrator) { o.offset = offset }
}

// WithStorage records every run in the journal.
func WithStorage(repo storage.Repository) Option {
	return func(o *Orchestrator) { o.storage = repo }
}

// NewOrchestrator creates an orchestrator reading PDF text from text.
func NewOrchestrator(text extractor.TextSource, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		text:     text,
		matching: matcher.DefaultCombinationConfig(),
		offset:   matcher.DefaultSequenceOffset,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run reconciles wb. Nothing is written to the transaction sheet unless
// matching succeeds, and nothing is saved on a dry run.
func (o *Orchestrator) Run(ctx context.Context, wb Workbook, opts Options) (*Result, error) {
	result := &Result{}
	runID := o.startRun(wb, opts)
	result.RunID = runID

	if err := o.run(ctx, wb, opts, result); err != nil {
		o.failRun(runID, err)
		return result, err
	}

	o.completeRun(runID, result)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, wb Workbook, opts Options, result *Result) error {
	o.logger.Info("starting reconciliation",
		"workbook", wb.Path(),
		"window", opts.Window.String(),
		"dry_run", opts.DryRun,
	)

	if opts.ListFolder {
		n, err := o.listFolder(wb, opts.InvoiceDir)
		if err != nil {
			return err
		}
		result.Listed = n
	}

	vendors, err := wb.ReadVendors()
	if err != nil {
		return fmt.Errorf("failed to read vendors: %w", err)
	}

	invoices, err := wb.ReadInvoices()
	if err != nil {
		return fmt.Errorf("failed to read invoices: %w", err)
	}

	if opts.SkipExtraction {
		markManual(invoices.Rows)
	} else if err := o.extract(ctx, wb, invoices, vendors, opts.Window, result); err != nil {
		return err
	}

	transactions, err := wb.ReadTransactions()
	if err != nil {
		return fmt.Errorf("failed to read transactions: %w", err)
	}

	report, err := o.match(invoices, transactions)
	if err != nil {
		return err
	}
	result.Report = report
	result.Discrepancies = o.audit(report, transactions.Rows)

	if err := wb.WriteTransactions(transactions); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}
	if err := wb.WriteUnmatched(report.Unmatched); err != nil {
		return fmt.Errorf("failed to write unmatched invoices: %w", err)
	}

	if opts.DryRun {
		o.logger.Info("dry run, workbook not saved")
		return nil
	}
	return o.save(wb, opts.OutputPath, result)
}

func (o *Orchestrator) listFolder(wb Workbook, dir string) (int, error) {
	if dir == "" {
		return 0, ErrNoInvoiceDir
	}
	entries, err := invoicedir.List(dir)
	if err != nil {
		return 0, err
	}
	if err := wb.ReplaceInvoices(invoicedir.Invoices(entries)); err != nil {
		return 0, fmt.Errorf("failed to list invoices on sheet: %w", err)
	}
	o.logger.Info("listed invoice folder", "dir", dir, "files", len(entries))
	return len(entries), nil
}

func (o *Orchestrator) extract(ctx context.Context, wb Workbook, invoices *ledger.InvoiceTable, vendors []string, window extractor.Window, result *Result) error {
	ex := extractor.New(o.text, window,
		extractor.WithOCR(o.ocr),
		extractor.WithPatterns(o.patterns),
		extractor.WithVendors(extractor.NewVendorDictionary(vendors)),
		extractor.WithLogger(o.logger.With("system", "extract")),
	)

	results, err := ex.ExtractAll(ctx, invoices.Rows)
	if err != nil {
		return fmt.Errorf("extraction stopped: %w", err)
	}

	for i, res := range results {
		invoices.Rows[i] = res.Invoice
		result.Extracted++
		if res.Invoice.Status == ledger.StatusFailed {
			result.ExtractionFailed++
		}
	}
	o.logger.Info("extracted invoices",
		"count", result.Extracted,
		"failed", result.ExtractionFailed,
	)

	missing, err := wb.UpdateInvoiceFields(invoices.Rows)
	if err != nil {
		return fmt.Errorf("failed to update invoices: %w", err)
	}
	result.NotOnSheet = missing
	return nil
}

func (o *Orchestrator) match(invoices *ledger.InvoiceTable, transactions *ledger.TransactionTable) (*matcher.Report, error) {
	engine := matcher.NewDefaultEngine(o.matching,
		matcher.WithLogger(o.logger.With("system", "matcher")),
		matcher.WithSequenceOffset(o.offset),
	)

	if err := engine.SetData(invoices, transactions); err != nil {
		return nil, err
	}
	report, err := engine.ExecuteInvoiceMatching()
	if err != nil {
		return nil, err
	}
	if err := engine.SequenceFileNames(); err != nil {
		return nil, err
	}
	return report, nil
}

// audit flags matches whose claimed charges do not sum to the invoice total.
// It never changes the outcome of matching.
func (o *Orchestrator) audit(report *matcher.Report, txns []ledger.TransactionRecord) []validator.Discrepancy {
	tolerance := validator.DefaultTolerance
	if o.matching.Tolerance.GreaterThan(tolerance) {
		tolerance = o.matching.Tolerance
	}

	found := validator.ValidateReport(report, txns, tolerance)
	for _, d := range found {
		o.logger.Warn("charges do not match invoice total",
			"file", d.FileName,
			"strategy", d.Kind.String(),
			"reason", d.Reason,
		)
	}
	return found
}

func (o *Orchestrator) save(wb Workbook, outputPath string, result *Result) error {
	if outputPath == "" || outputPath == wb.Path() {
		if err := wb.Save(); err != nil {
			return err
		}
		result.SavedTo = wb.Path()
		return nil
	}
	if err := wb.SaveAs(outputPath); err != nil {
		return err
	}
	result.SavedTo = outputPath
	return nil
}

// markManual flags sheet values that were not extracted in this run.
func markManual(rows []ledger.InvoiceRecord) {
	for i := range rows {
		if rows[i].Amount.Valid || rows[i].Date.Valid {
			rows[i].Status = ledger.StatusManual
		}
	}
}
