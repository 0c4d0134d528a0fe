package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// Strategy is one matching policy. Match must not modify its arguments; it
// returns the rows it would claim and true, or false when it has no match.
type Strategy interface {
	Kind() Kind
	Match(inv ledger.InvoiceRecord, txns []ledger.TransactionRecord, state *MatchState) (Outcome, bool)
}

// DefaultPrimaryStrategies returns the primary cascade in its fixed order.
func DefaultPrimaryStrategies(cfg CombinationConfig) []Strategy {
	return []Strategy{
		NewExactAmountDateStrategy(),
		NewExactAmountOnlyStrategy(),
		NewCombinationStrategy(cfg),
	}
}

// candidates returns, in table order, the unclaimed rows whose vendor matches
// the invoice and that pass keep.
func candidates(
	inv ledger.InvoiceRecord,
	txns []ledger.TransactionRecord,
	state *MatchState,
	keep func(ledger.TransactionRecord) bool,
) []int {
	var rows []int
	for i, tx := range txns {
		// Skip if already used
		if state.TransactionClaimed(i) {
			continue
		}
		if !ledger.VendorMatches(inv.Vendor, tx.Vendor) {
			continue
		}
		if keep != nil && !keep(tx) {
			continue
		}
		rows = append(rows, i)
	}
	return rows
}

// ExactAmountDateStrategy accepts the first candidate whose amount and date
// both equal the invoice's.
type ExactAmountDateStrategy struct{}

// NewExactAmountDateStrategy creates the first primary strategy.
func NewExactAmountDateStrategy() *ExactAmountDateStrategy {
	return &ExactAmountDateStrategy{}
}

func (s *ExactAmountDateStrategy) Kind() Kind { return KindExactAmountDate }

func (s *ExactAmountDateStrategy) Match(inv ledger.InvoiceRecord, txns []ledger.TransactionRecord, state *MatchState) (Outcome, bool) {
	if !inv.Amount.Valid || !inv.Date.Valid {
		return Outcome{}, false
	}

	rows := candidates(inv, txns, state, func(tx ledger.TransactionRecord) bool {
		return tx.Amount.Equal(inv.Amount.Decimal) && tx.Date.Equal(inv.Date)
	})
	if len(rows) == 0 {
		return Outcome{}, false
	}
	return Outcome{Kind: s.Kind(), Rows: rows[:1]}, true
}

// ExactAmountOnlyStrategy accepts the first candidate with the invoice amount,
// whatever its posting date. Covers billing-cycle lag between invoice and statement.
type ExactAmountOnlyStrategy struct{}

// NewExactAmountOnlyStrategy creates the second primary strategy.
func NewExactAmountOnlyStrategy() *ExactAmountOnlyStrategy {
	return &ExactAmountOnlyStrategy{}
}

func (s *ExactAmountOnlyStrategy) Kind() Kind { return KindExactAmountOnly }

func (s *ExactAmountOnlyStrategy) Match(inv ledger.InvoiceRecord, txns []ledger.TransactionRecord, state *MatchState) (Outcome, bool) {
	if !inv.Amount.Valid {
		return Outcome{}, false
	}

	rows := candidates(inv, txns, state, func(tx ledger.TransactionRecord) bool {
		return tx.Amount.Equal(inv.Amount.Decimal)
	})
	if len(rows) == 0 {
		return Outcome{}, false
	}
	return Outcome{Kind: s.Kind(), Rows: rows[:1]}, true
}

// CombinationStrategy matches an invoice billed as several postings on the
// same day: it searches subsets of same-date candidates, smallest first and
// then in table order, for one whose amounts sum to the invoice total within
// the configured tolerance.
type CombinationStrategy struct {
	config CombinationConfig
}

// NewCombinationStrategy creates the subset-sum strategy. A MaxSize below 1
// falls back to the default bound.
func NewCombinationStrategy(cfg CombinationConfig) *CombinationStrategy {
	if cfg.MaxSize < 1 {
		cfg.MaxSize = DefaultCombinationConfig().MaxSize
	}
	if cfg.Tolerance.IsNegative() {
		cfg.Tolerance = cfg.Tolerance.Abs()
	}
	return &CombinationStrategy{config: cfg}
}

func (s *CombinationStrategy) Kind() Kind { return KindCombinationSum }

func (s *CombinationStrategy) Match(inv ledger.InvoiceRecord, txns []ledger.TransactionRecord, state *MatchState) (Outcome, bool) {
	if !inv.Amount.Valid || !inv.Date.Valid {
		return Outcome{}, false
	}

	pool := candidates(inv, txns, state, func(tx ledger.TransactionRecord) bool {
		return tx.Date.Equal(inv.Date)
	})
	if len(pool) == 0 {
		return Outcome{}, false
	}

	amounts := make([]decimal.Decimal, len(pool))
	for i, row := range pool {
		amounts[i] = txns[row].Amount
	}

	maxSize := s.config.MaxSize
	if maxSize > len(pool) {
		maxSize = len(pool)
	}

	for size := 1; size <= maxSize; size++ {
		if picked := firstCombination(amounts, size, inv.Amount.Decimal, s.config.Tolerance); picked != nil {
			rows := make([]int, len(picked))
			for i, p := range picked {
				rows[i] = pool[p]
			}
			return Outcome{Kind: s.Kind(), Rows: rows}, true
		}
	}
	return Outcome{}, false
}

// firstCombination walks the size-element index combinations of amounts in
// lexicographic order and returns the first whose sum is within tolerance of
// target, or nil.
func firstCombination(amounts []decimal.Decimal, size int, target, tolerance decimal.Decimal) []int {
	n := len(amounts)
	if size < 1 || size > n {
		return nil
	}

	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}

	for {
		sum := decimal.Zero
		for _, p := range idx {
			sum = sum.Add(amounts[p])
		}
		if sum.Sub(target).Abs().LessThanOrEqual(tolerance) {
			return append([]int(nil), idx...)
		}

		// Advance to the next combination
		i := size - 1
		for i >= 0 && idx[i] == n-size+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// VendorOnlyStrategy is the fallback: the first unclaimed, unannotated row
// whose vendor matches, with no amount or date corroboration.
type VendorOnlyStrategy struct{}

// NewVendorOnlyStrategy creates the fallback strategy.
func NewVendorOnlyStrategy() *VendorOnlyStrategy {
	return &VendorOnlyStrategy{}
}

func (s *VendorOnlyStrategy) Kind() Kind { return KindVendorOnly }

func (s *VendorOnlyStrategy) Match(inv ledger.InvoiceRecord, txns []ledger.TransactionRecord, state *MatchState) (Outcome, bool) {
	if state.InvoiceClaimed(inv.ID()) {
		return Outcome{}, false
	}

	rows := candidates(inv, txns, state, func(tx ledger.TransactionRecord) bool {
		return !tx.Annotated()
	})
	if len(rows) == 0 {
		return Outcome{}, false
	}
	return Outcome{Kind: s.Kind(), Rows: rows[:1]}, true
}
