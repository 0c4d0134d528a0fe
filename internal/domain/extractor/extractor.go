// Package extractor reads the vendor, total and invoice date out of invoice
// PDFs. Text comes from a TextSource; the embedded PDF text is tried first and
// OCR only for the fields it did not yield.
package extractor

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// TextSource returns the text of a PDF.
type TextSource interface {
	Text(ctx context.Context, path string) (string, error)
}

// Source names recorded in Provenance.
const (
	SourceText = "text"
	SourceOCR  = "ocr"
)

// Provenance records where each field came from.
type Provenance struct {
	AmountSource  string
	AmountPattern string
	DateSource    string
	DatePattern   string
	VendorPattern string // identifier that selected vendor-specific patterns
	TextErr       error
	OCRErr        error
}

// Result is one extracted invoice.
type Result struct {
	Invoice    ledger.InvoiceRecord
	Provenance Provenance
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR sets the fallback text source.
func WithOCR(src TextSource) Option {
	return func(e *Extractor) { e.ocr = src }
}

// WithPatterns replaces the built-in pattern catalogue.
func WithPatterns(p *Patterns) Option {
	return func(e *Extractor) {
		if p != nil {
			e.patterns = p
		}
	}
}

// WithVendors sets the vendor dictionary.
func WithVendors(d *VendorDictionary) Option {
	return func(e *Extractor) {
		if d != nil {
			e.vendors = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor pulls invoice fields out of PDFs.
type Extractor struct {
	text     TextSource
	ocr      TextSource
	patterns *Patterns
	vendors  *VendorDictionary
	window   Window
	logger   *slog.Logger
}

// New creates an extractor reading text from src and accepting dates in window.
func New(src TextSource, window Window, opts ...Option) *Extractor {
	e := &Extractor{
		text:     src,
		patterns: DefaultPatterns(),
		vendors:  NewVendorDictionary(nil),
		window:   window,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads one invoice. A PDF that cannot be read is not an error: the
// fields stay missing and the status says so. Only context cancellation is
// returned.
func (e *Extractor) Extract(ctx context.Context, fileName, filePath string) (Result, error) {
	res := Result{
		Invoice: ledger.InvoiceRecord{
			FileName: fileName,
			FilePath: filePath,
			Vendor:   e.vendors.Lookup(fileName),
		},
	}
	prov := &res.Provenance

	text, err := e.text.Text(ctx, filePath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		prov.TextErr = err
		e.logger.Warn("could not read pdf text", "file", fileName, "error", err)
	}

	inv := &res.Invoice
	if text != "" {
		patterns, vendor := e.patterns.TotalFor(text)
		if amount, pattern, ok := FindTotal(text, patterns); ok {
			inv.Amount = decimal.NewNullDecimal(amount)
			prov.AmountSource, prov.AmountPattern = SourceText, pattern
			prov.VendorPattern = vendor
		}

		patterns, vendor = e.patterns.DateFor(text)
		if d, pattern, ok := FindDate(text, patterns, e.window); ok {
			inv.Date = ledger.NewNullDate(d)
			prov.DateSource, prov.DatePattern = SourceText, pattern
			if vendor != "" {
				prov.VendorPattern = vendor
			}
		}
	}

	if (!inv.Amount.Valid || !inv.Date.Valid) && e.ocr != nil {
		if err := e.fillFromOCR(ctx, inv, prov); err != nil {
			return res, err
		}
	}

	inv.Status = ledger.StatusFor(inv.Amount.Valid, inv.Date.Valid)

	e.logger.Debug("extracted invoice",
		"file", fileName,
		"vendor", inv.Vendor,
		"amount", inv.AmountString(),
		"date", inv.Date.String(),
		"status", string(inv.Status),
		"amount_source", prov.AmountSource,
		"amount_pattern", prov.AmountPattern,
		"date_source", prov.DateSource,
		"date_pattern", prov.DatePattern,
	)
	return res, nil
}

// fillFromOCR uses the generic patterns only; vendor identifiers rarely
// survive OCR intact.
func (e *Extractor) fillFromOCR(ctx context.Context, inv *ledger.InvoiceRecord, prov *Provenance) error {
	text, err := e.ocr.Text(ctx, inv.FilePath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		prov.OCRErr = err
		e.logger.Warn("ocr failed", "file", inv.FileName, "error", err)
		return nil
	}

	if !inv.Amount.Valid {
		if amount, pattern, ok := FindTotal(text, e.patterns.Total); ok {
			inv.Amount = decimal.NewNullDecimal(amount)
			prov.AmountSource, prov.AmountPattern = SourceOCR, pattern
		}
	}
	if !inv.Date.Valid {
		if d, pattern, ok := FindDate(text, e.patterns.Date, e.window); ok {
			inv.Date = ledger.NewNullDate(d)
			prov.DateSource, prov.DatePattern = SourceOCR, pattern
		}
	}
	return nil
}

// ExtractAll extracts each invoice in order, stopping only on cancellation.
// Invoices whose values were entered by hand (StatusManual) are passed through.
func (e *Extractor) ExtractAll(ctx context.Context, invoices []ledger.InvoiceRecord) ([]Result, error) {
	results := make([]Result, 0, len(invoices))
	for i, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if inv.Status == ledger.StatusManual {
			results = append(results, Result{Invoice: inv})
			continue
		}

		res, err := e.Extract(ctx, inv.FileName, inv.FilePath)
		if err != nil {
			return results, err
		}
		e.logger.Info("processed pdf",
			"n", i+1,
			"of", len(invoices),
			"file", inv.FileName,
			"status", string(res.Invoice.Status),
		)
		results = append(results, res)
	}
	return results, nil
}

// FindTotal returns the first amount captured by patterns, in order.
// Thousands separators are removed before parsing.
func FindTotal(text string, patterns []*regexp.Regexp) (decimal.Decimal, string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := capture(m)
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			continue
		}
		return amount, re.String(), true
	}
	return decimal.Decimal{}, "", false
}

// FindDate returns the first date, scanning patterns in order and each
// pattern's matches in text order, that parses and falls inside window.
func FindDate(text string, patterns []*regexp.Regexp, window Window) (civil.Date, string, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			d, err := ParseDate(capture(m))
			if err != nil {
				continue
			}
			if window.Contains(d) {
				return d, re.String(), true
			}
		}
	}
	return civil.Date{}, "", false
}

// capture returns the first group, or the whole match for patterns without one.
func capture(m []string) string {
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[0])
}
