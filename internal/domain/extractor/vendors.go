package extractor

import (
	"strings"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// VendorDictionary maps invoice file names to vendor names, using the vendor
// list from the workbook's lookup table.
type VendorDictionary struct {
	names []string
}

// NewVendorDictionary keeps the non-blank names in order.
func NewVendorDictionary(names []string) *VendorDictionary {
	d := &VendorDictionary{}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			d.names = append(d.names, n)
		}
	}
	return d
}

// Len returns the number of entries.
func (d *VendorDictionary) Len() int {
	return len(d.names)
}

// Lookup returns the vendor for a file name. The last entry whose lower-case
// form occurs in the lower-cased file name wins. "NEW" and "MICROSOFT" are too
// generic to substring-match; they are chosen only for file names containing
// "newrelic" and "msft", and are reported as "NEW" and "MSFT".
// No match gives ledger.UnknownVendor.
func (d *VendorDictionary) Lookup(fileName string) string {
	lowerFile := strings.ToLower(fileName)
	matched := ""

	for _, vendor := range d.names {
		lowerVendor := strings.ToLower(vendor)
		switch {
		case lowerVendor == "new":
			if strings.Contains(lowerFile, "newrelic") {
				matched = "NEW"
			}
		case lowerVendor == "microsoft":
			if strings.Contains(lowerFile, "msft") {
				matched = "MSFT"
			}
		case strings.Contains(lowerFile, lowerVendor):
			matched = vendor
		}
	}

	if matched == "" {
		return ledger.UnknownVendor
	}
	return matched
}
