package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/eshaffer321/amex-reconcile/internal/adapters/ocr"
	"github.com/eshaffer321/amex-reconcile/internal/adapters/pdftext"
	"github.com/eshaffer321/amex-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/amex-reconcile/internal/domain/extractor"
	"github.com/eshaffer321/amex-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/storage"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/workbook"
)

// RunReconcile wires the adapters from cfg and reconciles the configured
// workbook, printing the summary to out.
func RunReconcile(ctx context.Context, cfg *config.Config, flags ReconcileFlags, out io.Writer) error {
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Workbook.Path == "" {
		return fmt.Errorf("%w: workbook path is required", config.ErrInvalidConfig)
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, logging.SystemReconcile)

	start, end, err := cfg.Statement.Window()
	if err != nil {
		return err
	}
	tolerance, err := cfg.Matching.Tolerance()
	if err != nil {
		return err
	}

	PrintHeader(out, flags.DryRun)
	PrintConfiguration(out, cfg, flags.SkipExtract)

	wb, err := workbook.Open(cfg.Workbook.Path, cfg.Workbook.Layout(), logger.With("system", logging.SystemWorkbook))
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	opts := []reconcile.Option{
		reconcile.WithMatching(matcher.CombinationConfig{
			MaxSize:   cfg.Matching.CombinationMaxSize,
			Tolerance: tolerance,
		}),
		reconcile.WithSequenceOffset(cfg.Matching.SequenceOffset),
	}

	if engine := newOCREngine(ctx, cfg.Extraction.OCR, logger); engine != nil {
		opts = append(opts, reconcile.WithOCR(engine))
	}

	if cfg.Storage.DatabasePath != "" {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, reconcile.WithStorage(store))
	}

	text := pdftext.NewReader(logger.With("system", logging.SystemExtract))
	orch := reconcile.NewOrchestrator(text, logger, opts...)

	result, err := orch.Run(ctx, wb, reconcile.Options{
		InvoiceDir:     cfg.Invoices.Directory,
		ListFolder:     cfg.Invoices.ListFolder,
		SkipExtraction: flags.SkipExtract,
		DryRun:         flags.DryRun,
		OutputPath:     cfg.Workbook.OutputPath,
		Window:         extractor.Window{Start: start, End: end},
	})
	if err != nil {
		return err
	}
	return PrintSummary(out, result)
}

// newOCREngine returns nil when OCR is disabled or its tools are missing;
// extraction then relies on the PDF text layer alone.
func newOCREngine(ctx context.Context, cfg config.OCRConfig, logger *slog.Logger) *ocr.Engine {
	if !cfg.Enabled {
		return nil
	}
	engine := ocr.NewEngine(logger.With("system", logging.SystemExtract), &ocr.Config{
		TesseractPath: cfg.TesseractPath,
		PdftoppmPath:  cfg.PdftoppmPath,
		DPI:           cfg.DPI,
		Language:      cfg.Language,
	})
	if err := engine.HealthCheck(ctx); err != nil {
		logger.Warn("ocr disabled", "error", err)
		return nil
	}
	return engine
}
