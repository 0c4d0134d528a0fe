package workbook

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// ReadInvoices loads the Invoices table. Blank or unparsable amounts and
// dates are missing; with LegacySentinels the placeholder values are too.
// Column validation is left to the matching engine.
func (w *Workbook) ReadInvoices() (*ledger.InvoiceTable, error) {
	t, err := w.readTable(w.layout.InvoicesSheet)
	if err != nil {
		return nil, err
	}

	var (
		vendorIdx = headerIndex(t.headers, ledger.ColVendor)
		amountIdx = headerIndex(t.headers, ledger.ColAmount)
		dateIdx   = headerIndex(t.headers, ledger.ColDate)
		nameIdx   = headerIndex(t.headers, ledger.ColFileName)
		pathIdx   = headerIndex(t.headers, ledger.ColFilePath)
	)

	table := &ledger.InvoiceTable{Columns: t.headers}
	for _, row := range t.rows {
		inv := ledger.InvoiceRecord{
			Vendor:   cellAt(row, vendorIdx),
			FileName: cellAt(row, nameIdx),
			FilePath: cellAt(row, pathIdx),
		}
		if amount, ok := parseAmount(cellAt(row, amountIdx)); ok && !w.isSentinelAmount(amount) {
			inv.Amount = decimal.NewNullDecimal(amount)
		}
		if d, ok := parseCellDate(cellAt(row, dateIdx)); ok && !(w.layout.LegacySentinels && d == ledger.LegacySentinelDate) {
			inv.Date = ledger.NewNullDate(d)
		}
		inv.Status = ledger.StatusFor(inv.Amount.Valid, inv.Date.Valid)
		table.Rows = append(table.Rows, inv)
	}

	w.logger.Debug("read invoices", slog.Int("rows", len(table.Rows)))
	return table, nil
}

func (w *Workbook) isSentinelAmount(d decimal.Decimal) bool {
	return w.layout.LegacySentinels && d.Equal(ledger.LegacySentinelAmount)
}

// ReadVendors returns the vendor names in the first column of the lookup
// sheet, from the first data row down to the first blank cell.
func (w *Workbook) ReadVendors() ([]string, error) {
	t, err := w.readTable(w.layout.VendorsSheet)
	if err != nil {
		return nil, err
	}

	var vendors []string
	for _, row := range t.rows {
		v := cellAt(row, 0)
		if v == "" {
			break
		}
		vendors = append(vendors, v)
	}
	w.logger.Debug("read vendors", slog.Int("count", len(vendors)))
	return vendors, nil
}

// ReplaceInvoices rewrites the Invoices table with one row per file, the
// extracted columns left blank. Missing headers are added.
func (w *Workbook) ReplaceInvoices(rows []ledger.InvoiceRecord) error {
	sheet := w.layout.InvoicesSheet
	t, err := w.readTable(sheet)
	if err != nil {
		return err
	}

	cols, headers, err := w.ensureHeaders(sheet, t.headers, ledger.InvoiceColumns)
	if err != nil {
		return err
	}
	if err := w.clearRows(sheet, len(headers), w.layout.firstDataRow(), len(t.rows)); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}

	for i, inv := range rows {
		r := w.layout.firstDataRow() + i
		if err := w.file.SetCellStr(sheet, cellName(cols[ledger.ColFileName], r), inv.FileName); err != nil {
			return err
		}
		if err := w.file.SetCellStr(sheet, cellName(cols[ledger.ColFilePath], r), inv.FilePath); err != nil {
			return err
		}
	}

	w.logger.Info("listed invoices", slog.Int("previous", len(t.rows)), slog.Int("current", len(rows)))
	return nil
}

// UpdateInvoiceFields writes vendor, amount and date for each record onto
// the row with the same File Path. Records with no row are reported back.
func (w *Workbook) UpdateInvoiceFields(records []ledger.InvoiceRecord) (missing []string, err error) {
	sheet := w.layout.InvoicesSheet
	t, err := w.readTable(sheet)
	if err != nil {
		return nil, err
	}

	cols, _, err := w.ensureHeaders(sheet, t.headers, ledger.InvoiceColumns)
	if err != nil {
		return nil, err
	}

	rowByPath := make(map[string]int, len(t.rows))
	pathIdx := cols[ledger.ColFilePath] - 1
	for i, row := range t.rows {
		if p := cellAt(row, pathIdx); p != "" {
			rowByPath[p] = w.layout.firstDataRow() + i
		}
	}

	for _, inv := range records {
		r, ok := rowByPath[inv.FilePath]
		if !ok {
			missing = append(missing, inv.FilePath)
			continue
		}
		if err := w.writeInvoiceFields(sheet, cols, r, inv); err != nil {
			return missing, fmt.Errorf("failed to update %s: %w", inv.FileName, err)
		}
	}

	if len(missing) > 0 {
		w.logger.Warn("invoices not on sheet", slog.Int("count", len(missing)))
	}
	return missing, nil
}

func (w *Workbook) writeInvoiceFields(sheet string, cols map[string]int, r int, inv ledger.InvoiceRecord) error {
	vendor := inv.Vendor
	if vendor == "" && w.layout.LegacySentinels {
		vendor = ledger.UnknownVendor
	}
	if err := w.file.SetCellStr(sheet, cellName(cols[ledger.ColVendor], r), vendor); err != nil {
		return err
	}

	var amount any
	switch {
	case inv.Amount.Valid:
		amount = inv.Amount.Decimal.InexactFloat64()
	case w.layout.LegacySentinels:
		amount = ledger.LegacySentinelAmount.InexactFloat64()
	}
	if err := w.file.SetCellValue(sheet, cellName(cols[ledger.ColAmount], r), amount); err != nil {
		return err
	}

	date := ""
	switch {
	case inv.Date.Valid:
		date = inv.Date.String()
	case w.layout.LegacySentinels:
		date = ledger.LegacySentinelDate.String()
	}
	return w.file.SetCellStr(sheet, cellName(cols[ledger.ColDate], r), date)
}
