package extractor

import (
	"regexp"
	"strings"
)

// VendorPatterns are the capture patterns for invoices whose text contains
// Identifier. An empty list means the generic patterns apply to that field.
type VendorPatterns struct {
	Identifier string
	Total      []*regexp.Regexp
	Date       []*regexp.Regexp
}

// Patterns is the pattern catalogue. Order matters everywhere: the first
// total pattern that yields an amount wins, and vendor identifiers are tried
// in list order.
type Patterns struct {
	Total   []*regexp.Regexp
	Date    []*regexp.Regexp
	Vendors []VendorPatterns
}

// TotalFor returns the total patterns to use on text: the first identified
// vendor's, else the generic list. vendor is "" for the generic list.
func (p *Patterns) TotalFor(text string) (patterns []*regexp.Regexp, vendor string) {
	if v, ok := p.identify(text); ok && len(v.Total) > 0 {
		return v.Total, v.Identifier
	}
	return p.Total, ""
}

// DateFor is TotalFor for dates.
func (p *Patterns) DateFor(text string) (patterns []*regexp.Regexp, vendor string) {
	if v, ok := p.identify(text); ok && len(v.Date) > 0 {
		return v.Date, v.Identifier
	}
	return p.Date, ""
}

// identify matches identifiers case-sensitively, as printed on the invoice.
func (p *Patterns) identify(text string) (VendorPatterns, bool) {
	for _, v := range p.Vendors {
		if v.Identifier != "" && strings.Contains(text, v.Identifier) {
			return v, true
		}
	}
	return VendorPatterns{}, false
}

// Total patterns are case-insensitive; date patterns are not.
func totals(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

func dates(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

const (
	reTotal        = `Total(?: \(USD\))?:?\s+\$?(\d[\d,]*\.\d{2})`
	reGrandTotal   = `Grand Total(?: \(USD\))?:?\s+\$?(\d[\d,]*\.\d{2})`
	reNumericDate  = `\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4}`
	reAbbrevDate   = `[A-Za-z]{3}\.?\s\d{1,2},\s\d{4}`
	reLongDate     = `[A-Za-z]+ \d{1,2}, \d{4}`
	reInvoiceDated = `Invoice Date:\s*(\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4})`
	reDueDated     = `Due Date:\s*(\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4})`
)

// DefaultPatterns returns the built-in catalogue.
func DefaultPatterns() *Patterns {
	return &Patterns{
		// Most specific first; "Total" also matches inside "Grand Total".
		Total: totals(
			reGrandTotal,
			`Total amount due(?: \(USD\))?:?\s+\$?\S?(\d[\d,]*\.\d{2})`,
			reTotal,
			`Total\s+\(in USD\)\s*:? ?\$?(\d[\d,]*\.\d{2})`,
			`Total:\s+(\d[\d,]*\.\d{2})(?:\s+USD)?`,
			`New charges\s+\$(\d[\d,]*\.\d{2})`,
			`Invoice Total\s+\$(\d[\d,]*\.\d{2})`,
			`Order total\s+\$(\d[\d,]*\.\d{2})`,
		),
		Date: dates(
			reNumericDate,
			`\d{1,2}[\/-][A-Za-z]{3}[\/-]\d{2,4}`,
			reAbbrevDate,
			reLongDate,
		),
		Vendors: []VendorPatterns{
			{
				Identifier: "Thanks for choosing Comcast Business!",
				Date:       dates(`\d+\s+([A-Z][a-z]{2} \d{1,2}, \d{4})`),
				Total:      totals(`Regular monthly charges\s+\$([\d\.,]+)`),
			},
			{
				Identifier: "Comcast Business Cable",
				Date:       dates(`(` + reNumericDate + `)`),
				Total:      totals(`Total Amount Due(?: \(USD\))?:?\s+\$?\S?(\d[\d,]*\.\d{2})`),
			},
			{
				Identifier: "adobe",
				Date:       dates(`\d{1,2}[\/-][A-Za-z]{3}[\/-]\d{2,4}`),
				Total:      totals(reGrandTotal),
			},
			{
				Identifier: "amazon",
				Date:       dates(reLongDate),
				Total:      totals(reGrandTotal),
			},
			{
				Identifier: "Apple Store for Business",
				Date:       dates(reNumericDate),
				Total:      totals(reTotal),
			},
			{
				Identifier: "calendy",
				Date:       dates(reAbbrevDate),
				Total:      totals(reTotal),
			},
			{
				Identifier: "sales@cbtnuggets.com",
				Date:       dates(reNumericDate),
				Total:      totals(`Total \(in USD\)\s*:?\s*\$?(\d{1,3}(?:,\d{3})*\.\d{2})`),
			},
			{
				Identifier: "cloudflare",
				Date:       dates(reInvoiceDated),
				Total:      totals(reTotal),
			},
			{
				Identifier: "comptia",
				Date:       dates(reInvoiceDated),
				Total:      totals(reTotal),
			},
			{
				Identifier: "deft.com",
				Date:       dates(`Date\s+(\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4})`),
				Total:      totals(reTotal),
			},
			{
				Identifier: "dell!",
				Date:       dates(`Purchased On:\s+(` + reAbbrevDate + `)`),
				Total:      totals(reTotal),
			},
			{
				Identifier: "www.granitenet.com",
				Date:       dates(`INVOICE DATE:\s*(\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4})`),
				Total:      totals(`TOTAL AMOUNT DUE:\s*\$([\d,]+\.?\d*)`),
			},
			{
				Identifier: "lastpass",
				Date:       dates(reInvoiceDated),
				Total:      totals(reTotal),
			},
			{
				Identifier: "Microsoft Corporation",
				Date:       dates(reDueDated),
				Total:      totals(reGrandTotal),
			},
			{
				Identifier: "relic",
				Date:       dates(reDueDated),
				Total:      totals(`Invoice Total\s+\$(\d[\d,]*\.\d{2})`),
			},
			{
				Identifier: "www.serversupply.com",
				Date:       dates(`Date:\s*(\d{1,2}[\/-]\d{1,2}[\/-]\d{2,4})`),
				Total:      totals(reTotal),
			},
			{
				Identifier: "chatgpt",
				Date:       dates(reNumericDate),
				Total:      totals(reTotal),
			},
			{
				Identifier: "cdw.com",
				Date:       dates(`Due Date\s*.*\$\d+\.\d+\s+(\d{1,2}/\d{1,2}/\d{4})`),
				Total:      totals(`Amount Due(?: \(USD\))?:?\s+\$?\S?(\d[\d,]*\.\d{2})`),
			},
			{
				// Glyph mapping is broken in these PDFs; usually only OCR gets here.
				Identifier: "EBAY",
				Date:       dates(`Placed On:\s+(` + reAbbrevDate + `)`),
				Total:      totals(`Order total\s+\$(\d[\d,]*\.\d{2})`),
			},
			{
				Identifier: "otter.ai",
				Date: dates(
					`Date due (`+reAbbrevDate+`)`,
					`Date issued (`+reAbbrevDate+`)`,
				),
				Total: totals(
					`Amount due\s+\$(\d[\d,]*\.\d{2})`,
					`Total refunded without credit note\s+\$(\d[\d,]*\.\d{2})`,
				),
			},
			{
				Identifier: "symprex.com",
				Date:       dates(`Invoice date:\s*(\d{2}-[A-Za-z]{3}-\d{4})`),
				Total:      totals(`Total:\s+([0-9,]+\.\d{2})\s+USD`),
			},
		},
	}
}
