package matcher

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// Match records one accepted outcome.
type Match struct {
	InvoicePath string
	FileName    string
	Vendor      string
	Amount      decimal.NullDecimal
	Kind        Kind
	Rows        []int
}

// Report summarizes a matching run.
type Report struct {
	InvoiceCount     int
	TransactionCount int
	Matches          []Match
	Unmatched        []ledger.InvoiceRecord
	ByKind           map[Kind]int
}

func newReport(invoices, transactions int) *Report {
	return &Report{
		InvoiceCount:     invoices,
		TransactionCount: transactions,
		ByKind:           make(map[Kind]int),
	}
}

func (r *Report) add(m Match) {
	r.Matches = append(r.Matches, m)
	r.ByKind[m.Kind]++
}

// MatchedCount returns the number of invoices that found a match.
func (r *Report) MatchedCount() int {
	return len(r.Matches)
}

// ClaimedRows returns the number of transaction rows annotated.
func (r *Report) ClaimedRows() int {
	n := 0
	for _, m := range r.Matches {
		n += len(m.Rows)
	}
	return n
}

// MatchFor returns the match for an invoice path, if any.
func (r *Report) MatchFor(invoicePath string) (Match, bool) {
	for _, m := range r.Matches {
		if m.InvoicePath == invoicePath {
			return m, true
		}
	}
	return Match{}, false
}

// WriteUnmatched writes the unmatched invoices as an aligned table.
func (r *Report) WriteUnmatched(w io.Writer) error {
	if len(r.Unmatched) == 0 {
		_, err := fmt.Fprintln(w, "All invoices matched.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VENDOR\tAMOUNT\tDATE\tFILE")
	for _, inv := range r.Unmatched {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", inv.Vendor, inv.AmountString(), inv.Date.String(), inv.FileName)
	}
	return tw.Flush()
}
