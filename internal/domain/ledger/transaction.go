package ledger

import "github.com/shopspring/decimal"

// TransactionRecord is one posted statement line. Its identity is its row
// index in the TransactionTable. FileName, MatchLabel and FilePath are
// annotations written by the matching engine; empty means unset.
type TransactionRecord struct {
	Vendor      string
	Amount      decimal.Decimal
	Date        NullDate
	Description string

	FileName   string
	MatchLabel string
	FilePath   string
}

// Annotated reports whether a file name has been written onto the row.
func (t TransactionRecord) Annotated() bool {
	return t.FileName != ""
}
