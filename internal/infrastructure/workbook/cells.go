package workbook

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const isoDate = "2006-01-02"

// cellAt returns the trimmed value at idx, or "" past the end of a short row.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseAmount accepts raw numbers and display forms like "$1,234.50" or
// "(12.00)". Amounts are rounded to cents: computed cells carry float noise
// such as 52.990000000000002.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(2), true
}

// parseCellDate reads a date cell: an Excel serial number (raw values), an
// ISO string, or any other shape dateparse understands.
func parseCellDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return civil.Date{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return civil.Date{}, false
		}
		return civil.DateOf(t), true
	}

	if t, err := time.Parse(isoDate, s); err == nil {
		return civil.DateOf(t), true
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

// headerIndex returns the 0-based position of name, comparing like
// ledger.HasColumn, or -1.
func headerIndex(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// cellName converts 1-based coordinates to "A1" form. Callers only pass
// positive coordinates.
func cellName(col, row int) string {
	letters, _ := excelize.ColumnNumberToName(col)
	return letters + strconv.Itoa(row)
}
