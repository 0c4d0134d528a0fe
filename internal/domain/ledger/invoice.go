// Package ledger holds the invoice and statement-transaction records that the
// reconciler works on, and the column rules of the two tables they come from.
//
// Amounts are shopspring decimals and dates are civil (calendar) dates. A value
// that extraction could not find is represented as an invalid NullDecimal or
// NullDate instead of a magic number, so a real $666.66 invoice is never
// confused with a failed one.
package ledger

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// UnknownVendor is the vendor assigned when no dictionary entry matches the file name.
const UnknownVendor = "Unknown"

// Legacy sentinels written to (and recognised in) the spreadsheet for fields
// that extraction could not find. Reviewers filter on them in the workbook.
var (
	LegacySentinelAmount = decimal.RequireFromString("666.66")
	LegacySentinelDate   = civil.Date{Year: 1999, Month: time.January, Day: 1}
)

// ExtractionStatus records how much of an invoice was read automatically.
type ExtractionStatus string

const (
	StatusComplete ExtractionStatus = "complete" // amount and date found
	StatusPartial  ExtractionStatus = "partial"  // one of amount/date found
	StatusFailed   ExtractionStatus = "failed"   // neither found, or the PDF could not be read
	StatusManual   ExtractionStatus = "manual"   // values came from the sheet, not a PDF
)

// StatusFor derives the status from which fields were found.
func StatusFor(amountFound, dateFound bool) ExtractionStatus {
	switch {
	case amountFound && dateFound:
		return StatusComplete
	case amountFound || dateFound:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// NullDate is a calendar date that may be absent.
type NullDate struct {
	Date  civil.Date
	Valid bool
}

// NewNullDate returns a valid NullDate.
func NewNullDate(d civil.Date) NullDate {
	return NullDate{Date: d, Valid: true}
}

// Equal reports whether both dates are present and the same day.
func (n NullDate) Equal(other NullDate) bool {
	return n.Valid && other.Valid && n.Date == other.Date
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (n NullDate) String() string {
	if !n.Valid {
		return ""
	}
	return n.Date.String()
}

// InvoiceRecord is one vendor invoice PDF after field extraction.
// It is identified by FilePath.
type InvoiceRecord struct {
	Vendor   string
	Amount   decimal.NullDecimal
	Date     NullDate
	FileName string
	FilePath string
	Status   ExtractionStatus
}

// ID returns the invoice identity.
func (r InvoiceRecord) ID() string {
	return r.FilePath
}

// AmountString formats the amount with two decimals, or "" when absent.
func (r InvoiceRecord) AmountString() string {
	if !r.Amount.Valid {
		return ""
	}
	return r.Amount.Decimal.StringFixed(2)
}
