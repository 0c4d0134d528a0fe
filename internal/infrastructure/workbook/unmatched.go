package workbook

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

var unmatchedHeaders = []string{ledger.ColVendor, ledger.ColAmount, ledger.ColDate, ledger.ColFileName, "Status"}

// WriteUnmatched replaces the Unmatched Invoices sheet with one row per
// invoice. Headers are on row 1.
func (w *Workbook) WriteUnmatched(invoices []ledger.InvoiceRecord) error {
	sheet := w.layout.UnmatchedSheet
	if idx, err := w.file.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := w.file.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("failed to reset %q: %w", sheet, err)
		}
	}
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create %q: %w", sheet, err)
	}

	for c, h := range unmatchedHeaders {
		if err := w.file.SetCellStr(sheet, cellName(c+1, 1), h); err != nil {
			return err
		}
	}

	for i, inv := range invoices {
		r := i + 2
		values := []any{inv.Vendor, nil, inv.Date.String(), inv.FileName, string(inv.Status)}
		if inv.Amount.Valid {
			values[1] = inv.Amount.Decimal.InexactFloat64()
		}
		for c, v := range values {
			if err := w.file.SetCellValue(sheet, cellName(c+1, r), v); err != nil {
				return err
			}
		}
	}

	w.logger.Info("wrote unmatched invoices", slog.String("sheet", sheet), slog.Int("count", len(invoices)))
	return nil
}
