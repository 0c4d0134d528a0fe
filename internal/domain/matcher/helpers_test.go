package matcher

import (
	"io"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(s string) ledger.NullDate {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return ledger.NewNullDate(d)
}

// Helper to create test invoice. Empty amount or date means "not extracted".
func makeInvoice(vendor, amount, date, file string) ledger.InvoiceRecord {
	inv := ledger.InvoiceRecord{
		Vendor:   vendor,
		FileName: file,
		FilePath: "/invoices/" + file,
	}
	if amount != "" {
		inv.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	if date != "" {
		inv.Date = day(date)
	}
	inv.Status = ledger.StatusFor(inv.Amount.Valid, inv.Date.Valid)
	return inv
}

// Helper to create test transaction
func makeTransaction(vendor, amount, date string) ledger.TransactionRecord {
	return ledger.TransactionRecord{
		Vendor:      vendor,
		Amount:      decimal.RequireFromString(amount),
		Date:        day(date),
		Description: vendor + " purchase",
	}
}
