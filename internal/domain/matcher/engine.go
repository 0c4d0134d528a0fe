package matcher

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

// DefaultSequenceOffset is the first number SequenceFileNames assigns.
const DefaultSequenceOffset = 8

var (
	ErrNoStrategies     = errors.New("matcher: no primary strategies configured")
	ErrNoFallback       = errors.New("matcher: no fallback strategy configured")
	ErrDataNotSet       = errors.New("matcher: invoice and transaction tables not set")
	ErrAlreadyMatched   = errors.New("matcher: matching already executed for this data")
	ErrAlreadySequenced = errors.New("matcher: file names already sequenced")
	ErrNotMatched       = errors.New("matcher: file names sequenced before matching")
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSequenceOffset sets the starting number used by SequenceFileNames.
func WithSequenceOffset(offset int) EngineOption {
	return func(e *Engine) {
		e.sequenceOffset = offset
	}
}

// Engine runs the strategy cascade over an invoice table and a transaction
// table, annotating the transactions in place.
//
// Pass 1 offers each invoice, in table order, to the primary strategies until
// one accepts. Pass 2 offers each invoice still unmatched to the fallback.
// An Engine is not safe for concurrent use.
type Engine struct {
	primary        []Strategy
	fallback       Strategy
	sequenceOffset int
	logger         *slog.Logger

	invoices     *ledger.InvoiceTable
	transactions *ledger.TransactionTable
	state        *MatchState
	matched      bool
	sequenced    bool
}

// NewEngine creates an engine with the given cascade.
func NewEngine(primary []Strategy, fallback Strategy, opts ...EngineOption) *Engine {
	e := &Engine{
		primary:        primary,
		fallback:       fallback,
		sequenceOffset: DefaultSequenceOffset,
		logger:         slog.Default(),
		state:          NewMatchState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultEngine wires the standard cascade: exact amount and date, exact
// amount, combination total, then vendor only.
func NewDefaultEngine(cfg CombinationConfig, opts ...EngineOption) *Engine {
	return NewEngine(DefaultPrimaryStrategies(cfg), NewVendorOnlyStrategy(), opts...)
}

// SetData binds the tables for a run. Both tables are validated before
// anything is modified; on success the transaction table gains any missing
// annotation columns and the claim state is reset.
func (e *Engine) SetData(invoices *ledger.InvoiceTable, transactions *ledger.TransactionTable) error {
	if len(e.primary) == 0 {
		return ErrNoStrategies
	}
	if e.fallback == nil {
		return ErrNoFallback
	}
	if invoices == nil || transactions == nil {
		return ErrDataNotSet
	}

	if err := invoices.Validate(); err != nil {
		return fmt.Errorf("invalid invoice table: %w", err)
	}
	if err := transactions.Validate(); err != nil {
		return fmt.Errorf("invalid transaction table: %w", err)
	}

	if added := transactions.EnsureAnnotationColumns(); len(added) > 0 {
		e.logger.Debug("added annotation columns", "columns", added)
	}

	e.invoices = invoices
	e.transactions = transactions
	e.state = NewMatchState()
	e.matched = false
	e.sequenced = false
	return nil
}

// State exposes the claim sets of the current binding.
func (e *Engine) State() *MatchState {
	return e.state
}

// ExecuteInvoiceMatching runs both passes once per binding.
func (e *Engine) ExecuteInvoiceMatching() (*Report, error) {
	if e.invoices == nil || e.transactions == nil {
		return nil, ErrDataNotSet
	}
	if e.matched {
		return nil, ErrAlreadyMatched
	}

	report := newReport(len(e.invoices.Rows), len(e.transactions.Rows))

	// Pass 1: primary cascade, first acceptance wins
	for _, inv := range e.invoices.Rows {
		for _, strategy := range e.primary {
			outcome, ok := strategy.Match(inv, e.transactions.Rows, e.state)
			if !ok {
				continue
			}
			if e.apply(inv, outcome, report) {
				break
			}
		}
	}

	// Pass 2: fallback for whatever is left
	for _, inv := range e.invoices.Rows {
		if e.state.InvoiceClaimed(inv.ID()) {
			continue
		}
		if outcome, ok := e.fallback.Match(inv, e.transactions.Rows, e.state); ok {
			e.apply(inv, outcome, report)
		}
	}

	for _, inv := range e.invoices.Rows {
		if !e.state.InvoiceClaimed(inv.ID()) {
			report.Unmatched = append(report.Unmatched, inv)
		}
	}
	e.matched = true

	e.logger.Info("invoice matching complete",
		"invoices", report.InvoiceCount,
		"transactions", report.TransactionCount,
		"matched", report.MatchedCount(),
		"unmatched", len(report.Unmatched),
	)
	if len(report.Unmatched) > 0 {
		names := make([]string, len(report.Unmatched))
		for i, inv := range report.Unmatched {
			names[i] = inv.FileName
		}
		e.logger.Warn("invoices left unmatched", "count", len(names), "files", names)
	}

	return report, nil
}

// apply annotates and claims the outcome's rows. Outcomes that touch a
// claimed or out-of-range row are rejected so a misbehaving strategy cannot
// break claim exclusivity.
func (e *Engine) apply(inv ledger.InvoiceRecord, outcome Outcome, report *Report) bool {
	if len(outcome.Rows) == 0 {
		return false
	}
	seen := make(map[int]bool, len(outcome.Rows))
	for _, row := range outcome.Rows {
		if row < 0 || row >= len(e.transactions.Rows) || e.state.TransactionClaimed(row) || seen[row] {
			e.logger.Error("strategy proposed unavailable row",
				"strategy", outcome.Kind.String(),
				"invoice", inv.FileName,
				"row", row,
			)
			return false
		}
		seen[row] = true
	}

	for _, row := range outcome.Rows {
		tx := &e.transactions.Rows[row]
		tx.FileName = inv.FileName
		tx.MatchLabel = outcome.Kind.Label()
		tx.FilePath = inv.FilePath
	}
	e.state.claim(inv.ID(), outcome.Rows)

	report.add(Match{
		InvoicePath: inv.FilePath,
		FileName:    inv.FileName,
		Vendor:      inv.Vendor,
		Amount:      inv.Amount,
		Kind:        outcome.Kind,
		Rows:        append([]int(nil), outcome.Rows...),
	})

	e.logger.Debug("matched invoice",
		"file", inv.FileName,
		"strategy", outcome.Kind.String(),
		"rows", outcome.Rows,
	)
	return true
}

// SequenceFileNames prefixes every transaction's file name with a running
// number starting at the configured offset. It runs at most once per binding,
// after ExecuteInvoiceMatching: a sequenced name marks every row annotated,
// which would shut out the vendor-only fallback.
func (e *Engine) SequenceFileNames() error {
	if e.transactions == nil {
		return ErrDataNotSet
	}
	if !e.matched {
		return ErrNotMatched
	}
	if e.sequenced {
		return ErrAlreadySequenced
	}

	for i := range e.transactions.Rows {
		tx := &e.transactions.Rows[i]
		tx.FileName = fmt.Sprintf("%d - %s", e.sequenceOffset+i, tx.FileName)
	}
	e.sequenced = true
	return nil
}
