package workbook

// FormulaColumn writes Template into Header's column for every transaction
// row. "{row}" in the template is replaced by the sheet row number.
type FormulaColumn struct {
	Header   string `yaml:"header"`
	Template string `yaml:"template"`
}

// Layout describes where the reconciliation tables live in the workbook.
type Layout struct {
	InvoicesSheet     string
	TransactionsSheet string
	VendorsSheet      string
	UnmatchedSheet    string

	// HeaderRow is the 1-based row holding the table headers; data starts
	// on the next row.
	HeaderRow int

	// Formulas are rewritten on every transaction row after matching.
	Formulas []FormulaColumn

	// WriteFilePath keeps the File Path annotation column in the saved
	// transaction sheet. Reviewers usually only want the file name.
	WriteFilePath bool

	// LegacySentinels writes 666.66 / 1999-01-01 for fields extraction
	// could not find, and reads them back as missing.
	LegacySentinels bool
}

// DefaultLayout matches the monthly template workbook.
func DefaultLayout() Layout {
	return Layout{
		InvoicesSheet:     "Invoices",
		TransactionsSheet: "Transaction Details 2",
		VendorsSheet:      "Xlookup table",
		UnmatchedSheet:    "Unmatched Invoices",
		HeaderRow:         7,
		LegacySentinels:   true,
		Formulas:          DefaultFormulas(),
	}
}

// DefaultFormulas are the account lookup columns of the template.
func DefaultFormulas() []FormulaColumn {
	return []FormulaColumn{
		{Header: "Account", Template: `=XLOOKUP(G{row}, Table2[[#All],[Vendors]], Table2[[#All],[Account]],,0,1)`},
		{Header: "Sub-Account", Template: `=XLOOKUP(G{row}, Table2[[#All],[Vendors]], Table2[[#All],[Code]], "PLEASE REVIEW", 0, 1)`},
		{Header: "Vendor", Template: `=TEXTBEFORE(C{row}," ")`},
		{Header: "Explanation", Template: `=TEXTJOIN("/", TRUE, "Amex", "IT", G{row}, TEXTAFTER(I{row},"- "))`},
	}
}

func (l Layout) firstDataRow() int {
	return l.HeaderRow + 1
}
