package workbook

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// InvalidAmountError reports a statement row whose amount is not a number.
type InvalidAmountError struct {
	Row   int // sheet row
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("transaction row %d: invalid amount %q", e.Row, e.Value)
}

// ReadTransactions loads the statement table, including any annotations
// already present.
func (w *Workbook) ReadTransactions() (*ledger.TransactionTable, error) {
	t, err := w.readTable(w.layout.TransactionsSheet)
	if err != nil {
		return nil, err
	}

	var (
		vendorIdx = headerIndex(t.headers, ledger.ColVendor)
		amountIdx = headerIndex(t.headers, ledger.ColAmount)
		dateIdx   = headerIndex(t.headers, ledger.ColDate)
		descIdx   = headerIndex(t.headers, ledger.ColDescription)
		nameIdx   = headerIndex(t.headers, ledger.ColFileName)
		labelIdx  = headerIndex(t.headers, ledger.ColMatchLabel)
		pathIdx   = headerIndex(t.headers, ledger.ColFilePath)
	)

	table := &ledger.TransactionTable{Columns: t.headers}
	if amountIdx < 0 {
		// Let the engine report the missing column.
		return table, nil
	}

	for i, row := range t.rows {
		raw := cellAt(row, amountIdx)
		amount, ok := parseAmount(raw)
		if !ok {
			return nil, &InvalidAmountError{Row: w.layout.firstDataRow() + i, Value: raw}
		}

		tx := ledger.TransactionRecord{
			Vendor:      cellAt(row, vendorIdx),
			Amount:      amount,
			Description: cellAt(row, descIdx),
			FileName:    cellAt(row, nameIdx),
			MatchLabel:  cellAt(row, labelIdx),
			FilePath:    cellAt(row, pathIdx),
		}
		if d, ok := parseCellDate(cellAt(row, dateIdx)); ok {
			tx.Date = ledger.NewNullDate(d)
		}
		table.Rows = append(table.Rows, tx)
	}

	w.logger.Debug("read transactions", slog.Int("rows", len(table.Rows)))
	return table, nil
}

// WriteTransactions writes the annotation columns of every row, adding
// their headers when needed, and refreshes the configured formula columns.
// Other cells are left untouched.
func (w *Workbook) WriteTransactions(table *ledger.TransactionTable) error {
	sheet := w.layout.TransactionsSheet
	t, err := w.readTable(sheet)
	if err != nil {
		return err
	}
	if len(t.rows) != len(table.Rows) {
		return fmt.Errorf("transaction sheet has %d rows, table has %d", len(t.rows), len(table.Rows))
	}

	names := []string{ledger.ColFileName, ledger.ColMatchLabel}
	if w.layout.WriteFilePath {
		names = append(names, ledger.ColFilePath)
	}
	cols, headers, err := w.ensureHeaders(sheet, t.headers, names)
	if err != nil {
		return err
	}

	for i, tx := range table.Rows {
		r := w.layout.firstDataRow() + i
		values := map[string]string{
			ledger.ColFileName:   tx.FileName,
			ledger.ColMatchLabel: tx.MatchLabel,
			ledger.ColFilePath:   tx.FilePath,
		}
		for _, name := range names {
			if err := w.file.SetCellStr(sheet, cellName(cols[name], r), values[name]); err != nil {
				return fmt.Errorf("row %d %s: %w", r, name, err)
			}
		}
	}

	if err := w.writeFormulas(sheet, headers, len(table.Rows)); err != nil {
		return err
	}

	w.logger.Info("wrote transactions", slog.Int("rows", len(table.Rows)))
	return nil
}

func (w *Workbook) writeFormulas(sheet string, headers []string, count int) error {
	for _, fc := range w.layout.Formulas {
		idx := headerIndex(headers, fc.Header)
		if idx < 0 {
			w.logger.Warn("formula column not on sheet", slog.String("sheet", sheet), slog.String("header", fc.Header))
			continue
		}
		for i := 0; i < count; i++ {
			r := w.layout.firstDataRow() + i
			formula := strings.ReplaceAll(fc.Template, "{row}", strconv.Itoa(r))
			if err := w.file.SetCellFormula(sheet, cellName(idx+1, r), formula); err != nil {
				return fmt.Errorf("row %d %s formula: %w", r, fc.Header, err)
			}
		}
	}
	return nil
}
