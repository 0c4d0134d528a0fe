package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies a matching strategy. The set is closed.
type Kind int

const (
	KindExactAmountDate Kind = iota + 1
	KindExactAmountOnly
	KindCombinationSum
	KindVendorOnly
)

// Label is the human-readable text written into the match-label column.
// Weaker kinds carry labels reviewers can filter on.
func (k Kind) Label() string {
	switch k {
	case KindExactAmountDate:
		return "Exact Amount and Date Match"
	case KindExactAmountOnly:
		return "Amount and Exclude Date Match"
	case KindCombinationSum:
		return "Combination Total Match"
	case KindVendorOnly:
		return "Vendor Only Match"
	default:
		return ""
	}
}

// String returns a short identifier used in logs and the run journal.
func (k Kind) String() string {
	switch k {
	case KindExactAmountDate:
		return "exact_amount_date"
	case KindExactAmountOnly:
		return "exact_amount_only"
	case KindCombinationSum:
		return "combination_sum"
	case KindVendorOnly:
		return "vendor_only"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kinds lists every strategy kind in cascade order.
func Kinds() []Kind {
	return []Kind{KindExactAmountDate, KindExactAmountOnly, KindCombinationSum, KindVendorOnly}
}

// KindFromString parses the String form. Unknown names return false.
func KindFromString(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Outcome is what a strategy proposes: the transaction rows to claim for the
// invoice it was given. The engine applies it.
type Outcome struct {
	Kind Kind
	Rows []int
}

// MatchState holds the claim sets for one matching run. Strategies only read
// it; the engine is the only writer.
type MatchState struct {
	claimedTransactions map[int]bool
	claimedInvoices     map[string]bool
}

// NewMatchState returns empty claim sets.
func NewMatchState() *MatchState {
	return &MatchState{
		claimedTransactions: make(map[int]bool),
		claimedInvoices:     make(map[string]bool),
	}
}

// TransactionClaimed reports whether the transaction row is already matched.
func (s *MatchState) TransactionClaimed(row int) bool {
	return s.claimedTransactions[row]
}

// InvoiceClaimed reports whether the invoice already has a match.
func (s *MatchState) InvoiceClaimed(invoiceID string) bool {
	return s.claimedInvoices[invoiceID]
}

// ClaimedTransactions returns the number of claimed transaction rows.
func (s *MatchState) ClaimedTransactions() int {
	return len(s.claimedTransactions)
}

// ClaimedInvoices returns the number of claimed invoices.
func (s *MatchState) ClaimedInvoices() int {
	return len(s.claimedInvoices)
}

func (s *MatchState) claim(invoiceID string, rows []int) {
	for _, r := range rows {
		s.claimedTransactions[r] = true
	}
	s.claimedInvoices[invoiceID] = true
}

// CombinationConfig bounds the subset-sum search.
type CombinationConfig struct {
	MaxSize   int             // largest subset tried (default 3)
	Tolerance decimal.Decimal // absolute; default 0.01 (currency rounding)
}

// DefaultCombinationConfig returns sensible defaults
func DefaultCombinationConfig() CombinationConfig {
	return CombinationConfig{
		MaxSize:   3,
		Tolerance: decimal.New(1, -2),
	}
}
