package ledger

import "strings"

// VendorMatches reports whether the invoice vendor occurs, case-insensitively,
// inside the transaction vendor text ("MICROSOFT" matches "Microsoft Corp").
// An empty invoice vendor, or the UnknownVendor placeholder, matches nothing.
func VendorMatches(invoiceVendor, transactionVendor string) bool {
	needle := strings.TrimSpace(invoiceVendor)
	if needle == "" || strings.EqualFold(needle, UnknownVendor) {
		return false
	}
	return strings.Contains(strings.ToLower(transactionVendor), strings.ToLower(needle))
}
