// Package validator checks that the statement charges claimed for an invoice
// add up to the invoice total.
//
// Exact and combination matches agree by construction. Vendor-only matches
// claim a vendor's leftover charges whatever their amounts, so that is where
// a charge that has not posted yet or a credit shows up as a difference.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/amex-reconcile/internal/domain/matcher"
)

// DefaultTolerance allows two cents of rounding between invoice and charges.
var DefaultTolerance = decimal.New(2, -2)

// ChargeValidation contains the result of validating one match.
type ChargeValidation struct {
	// Valid is true if the charges sum to the invoice total
	Valid bool

	ChargesSum    decimal.Decimal
	InvoiceAmount decimal.NullDecimal

	// Difference is ChargesSum minus the invoice total; zero when the
	// invoice has no total
	Difference decimal.Decimal

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateCharges checks that charges sum to the invoice total within
// tolerance. An invoice without a total cannot be validated and is reported
// as invalid.
func ValidateCharges(charges []decimal.Decimal, invoiceAmount decimal.NullDecimal, tolerance decimal.Decimal) *ChargeValidation {
	sum := decimal.Zero
	for _, c := range charges {
		sum = sum.Add(c)
	}

	v := &ChargeValidation{ChargesSum: sum, InvoiceAmount: invoiceAmount}
	if !invoiceAmount.Valid {
		v.Reason = fmt.Sprintf("invoice total unknown; charges sum to $%s", sum.StringFixed(2))
		return v
	}

	expected := invoiceAmount.Decimal
	v.Difference = sum.Sub(expected)
	if v.Difference.Abs().LessThanOrEqual(tolerance.Abs()) {
		v.Valid = true
		return v
	}

	if v.Difference.IsNegative() {
		v.Reason = fmt.Sprintf("charges ($%s) are less than the invoice ($%s) - missing $%s, a charge may not have posted yet",
			sum.StringFixed(2), expected.StringFixed(2), v.Difference.Neg().StringFixed(2))
	} else {
		v.Reason = fmt.Sprintf("charges ($%s) exceed the invoice ($%s) by $%s - possible duplicate or extra charge",
			sum.StringFixed(2), expected.StringFixed(2), v.Difference.StringFixed(2))
	}
	return v
}

// Discrepancy is a match whose charges do not add up.
type Discrepancy struct {
	FileName string
	Vendor   string
	Kind     matcher.Kind
	Rows     []int
	*ChargeValidation
}

// ValidateReport checks every match in report against the transaction rows it
// claimed and returns the ones that fail, in match order.
func ValidateReport(report *matcher.Report, txns []ledger.TransactionRecord, tolerance decimal.Decimal) []Discrepancy {
	if report == nil {
		return nil
	}

	var out []Discrepancy
	for _, m := range report.Matches {
		charges := make([]decimal.Decimal, 0, len(m.Rows))
		for _, row := range m.Rows {
			if row >= 0 && row < len(txns) {
				charges = append(charges, txns[row].Amount)
			}
		}
		v := ValidateCharges(charges, m.Amount, tolerance)
		if v.Valid {
			continue
		}
		out = append(out, Discrepancy{
			FileName:         m.FileName,
			Vendor:           m.Vendor,
			Kind:             m.Kind,
			Rows:             m.Rows,
			ChargeValidation: v,
		})
	}
	return out
}
