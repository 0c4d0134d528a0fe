package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Column headers used by the Invoices and Transaction Details sheets.
const (
	ColVendor      = "Vendor"
	ColAmount      = "Amount"
	ColDate        = "Date"
	ColDescription = "Description"
	ColFileName    = "File Name"
	ColFilePath    = "File Path"
	ColMatchLabel  = "Column1"
)

var (
	// InvoiceColumns must all be present on the invoice table.
	InvoiceColumns = []string{ColVendor, ColAmount, ColDate, ColFileName, ColFilePath}

	// TransactionColumns must all be present on the transaction table.
	TransactionColumns = []string{ColVendor, ColAmount, ColDate, ColDescription}

	// AnnotationColumns are added to the transaction table when absent.
	AnnotationColumns = []string{ColFileName, ColMatchLabel, ColFilePath}
)

var (
	ErrMissingColumn    = errors.New("missing required column")
	ErrDuplicateInvoice = errors.New("duplicate invoice file path")
	ErrBlankInvoicePath = errors.New("invoice has no file path")
)

// MissingColumnError names the table and the first required column it lacks.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table: %s %q", e.Table, ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// HasColumn reports whether name is among columns. Header comparison ignores
// case and surrounding space ("File name" and "File Name" are the same column).
func HasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

// RequireColumns returns a *MissingColumnError for the first required column
// not present in have.
func RequireColumns(table string, have, required []string) error {
	for _, col := range required {
		if !HasColumn(have, col) {
			return &MissingColumnError{Table: table, Column: col}
		}
	}
	return nil
}

// InvoiceTable is the invoice dataset in sheet order.
type InvoiceTable struct {
	Columns []string
	Rows    []InvoiceRecord
}

// NewInvoiceTable builds a table with the standard invoice columns.
func NewInvoiceTable(rows []InvoiceRecord) *InvoiceTable {
	return &InvoiceTable{
		Columns: append([]string(nil), InvoiceColumns...),
		Rows:    rows,
	}
}

// Validate checks required columns and that every invoice has a unique file path.
func (t *InvoiceTable) Validate() error {
	if err := RequireColumns("invoices", t.Columns, InvoiceColumns); err != nil {
		return err
	}

	seen := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		if strings.TrimSpace(row.FilePath) == "" {
			return fmt.Errorf("invoice row %d (%s): %w", i, row.FileName, ErrBlankInvoicePath)
		}
		if first, dup := seen[row.FilePath]; dup {
			return fmt.Errorf("invoice rows %d and %d share %q: %w", first, i, row.FilePath, ErrDuplicateInvoice)
		}
		seen[row.FilePath] = i
	}
	return nil
}

// TransactionTable is the statement dataset in sheet order. Row indexes are
// the transaction identities.
type TransactionTable struct {
	Columns []string
	Rows    []TransactionRecord
}

// NewTransactionTable builds a table with the standard transaction columns.
func NewTransactionTable(rows []TransactionRecord) *TransactionTable {
	return &TransactionTable{
		Columns: append([]string(nil), TransactionColumns...),
		Rows:    rows,
	}
}

// Validate checks required columns.
func (t *TransactionTable) Validate() error {
	return RequireColumns("transactions", t.Columns, TransactionColumns)
}

// EnsureAnnotationColumns appends any missing annotation column and returns
// the names it added.
func (t *TransactionTable) EnsureAnnotationColumns() []string {
	var added []string
	for _, col := range AnnotationColumns {
		if !HasColumn(t.Columns, col) {
			t.Columns = append(t.Columns, col)
			added = append(added, col)
		}
	}
	return added
}
