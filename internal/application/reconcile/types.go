package reconcile

import (
	"github.com/eshaffer321/amex-reconcile/internal/domain/extractor"
	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/amex-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/amex-reconcile/internal/domain/validator"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/workbook"
)

// Workbook is the spreadsheet a run reads from and writes back to.
type Workbook interface {
	Path() string
	ReadVendors() ([]string, error)
	ReadInvoices() (*ledger.InvoiceTable, error)
	ReplaceInvoices(rows []ledger.InvoiceRecord) error
	UpdateInvoiceFields(records []ledger.InvoiceRecord) ([]string, error)
	ReadTransactions() (*ledger.TransactionTable, error)
	WriteTransactions(table *ledger.TransactionTable) error
	WriteUnmatched(invoices []ledger.InvoiceRecord) error
	Save() error
	SaveAs(path string) error
}

var _ Workbook = (*workbook.Workbook)(nil)

// Options holds run configuration
type Options struct {
	InvoiceDir     string // folder listed when ListFolder is set
	ListFolder     bool
	SkipExtraction bool // match on the values already in the sheet
	DryRun         bool // do everything except save
	OutputPath     string
	Window         extractor.Window
}

// Result holds run results
type Result struct {
	RunID            string // empty when no journal is configured
	Report           *matcher.Report
	Listed           int
	Extracted        int
	ExtractionFailed int
	NotOnSheet       []string // extracted paths with no Invoices row
	SavedTo          string   // empty on a dry run
	Discrepancies    []validator.Discrepancy
}
