package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

// Window is the statement period. Only dates inside it are accepted as the
// invoice date, which filters out due dates and service periods from other
// months. A zero bound is open.
type Window struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports whether d lies inside the window, bounds included.
func (w Window) Contains(d civil.Date) bool {
	if w.Start.IsValid() && d.Before(w.Start) {
		return false
	}
	if w.End.IsValid() && d.After(w.End) {
		return false
	}
	return true
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", boundString(w.Start), boundString(w.End))
}

func boundString(d civil.Date) string {
	if !d.IsValid() {
		return "open"
	}
	return d.String()
}

// Layouts for the shapes the date patterns capture. Numeric dates are read
// month first, as printed on US invoices.
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2-Jan-2006",
	"2/Jan/2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

var abbrevDot = regexp.MustCompile(`^([A-Za-z]{3,4})\.`)

// ParseDate reads a captured date string. Known layouts are tried first;
// anything else goes through dateparse.
func ParseDate(s string) (civil.Date, error) {
	s = strings.Join(strings.Fields(s), " ")
	s = abbrevDot.ReplaceAllString(s, "$1")
	if s == "" {
		return civil.Date{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return civil.DateOf(t), nil
}
