package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amex-reconcile/internal/domain/ledger"
)

func newTestEngine(opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithLogger(quietLogger())}, opts...)
	return NewDefaultEngine(DefaultCombinationConfig(), opts...)
}

func runEngine(t *testing.T, invoices []ledger.InvoiceRecord, txns []ledger.TransactionRecord) (*ledger.TransactionTable, *Report) {
	t.Helper()
	table := ledger.NewTransactionTable(txns)
	engine := newTestEngine()
	require.NoError(t, engine.SetData(ledger.NewInvoiceTable(invoices), table))
	report, err := engine.ExecuteInvoiceMatching()
	require.NoError(t, err)
	return table, report
}

// fakeStrategy proposes fixed rows, for exercising engine guards
type fakeStrategy struct {
	kind Kind
	rows []int
}

func (f *fakeStrategy) Kind() Kind { return f.kind }
func (f *fakeStrategy) Match(ledger.InvoiceRecord, []ledger.TransactionRecord, *MatchState) (Outcome, bool) {
	return Outcome{Kind: f.kind, Rows: f.rows}, len(f.rows) > 0
}

func TestEngine_EndToEnd(t *testing.T) {
	// Arrange
	invoices := []ledger.InvoiceRecord{
		makeInvoice("CLOUDFLARE", "120.00", "2024-02-01", "inv1.pdf"),
	}
	txns := []ledger.TransactionRecord{
		makeTransaction("CLOUDFLARE INC", "120.00", "2024-02-01"),
		makeTransaction("ADOBE", "52.99", "2024-02-03"),
	}

	// Act
	table, report := runEngine(t, invoices, txns)

	// Assert
	assert.Equal(t, "inv1.pdf", table.Rows[0].FileName)
	assert.Equal(t, "Exact Amount and Date Match", table.Rows[0].MatchLabel)
	assert.Equal(t, "/invoices/inv1.pdf", table.Rows[0].FilePath)
	assert.False(t, table.Rows[1].Annotated())
	assert.Empty(t, table.Rows[1].MatchLabel)
	assert.Empty(t, report.Unmatched)
	assert.Equal(t, 1, report.ByKind[KindExactAmountDate])
	assert.True(t, ledger.HasColumn(table.Columns, ledger.ColMatchLabel))
}

func TestEngine_StrategyPrecedence(t *testing.T) {
	invoices := []ledger.InvoiceRecord{
		makeInvoice("ADOBE", "52.99", "2024-02-03", "adobe.pdf"),
	}
	txns := []ledger.TransactionRecord{
		makeTransaction("ADOBE", "10.00", "2024-01-01"),
		makeTransaction("ADOBE", "52.99", "2024-02-03"),
	}

	table, report := runEngine(t, invoices, txns)

	assert.False(t, table.Rows[0].Annotated(), "vendor-only candidate must not be chosen")
	assert.Equal(t, KindExactAmountDate.Label(), table.Rows[1].MatchLabel)
	m, ok := report.MatchFor("/invoices/adobe.pdf")
	require.True(t, ok)
	assert.Equal(t, []int{1}, m.Rows)
}

func TestEngine_CascadeOrder(t *testing.T) {
	invoices := []ledger.InvoiceRecord{
		makeInvoice("ZOOM", "15.99", "2024-04-01", "zoom.pdf"),      // amount only
		makeInvoice("GITHUB", "100.00", "2024-04-02", "github.pdf"), // combination
		makeInvoice("SLACK", "", "", "slack.pdf"),                   // vendor only
		makeInvoice("NOTION", "8.00", "2024-04-03", "notion.pdf"),   // unmatched
	}
	txns := []ledger.TransactionRecord{
		makeTransaction("ZOOM.US", "15.99", "2024-04-09"),
		makeTransaction("GITHUB", "33.33", "2024-04-02"),
		makeTransaction("GITHUB", "33.33", "2024-04-02"),
		makeTransaction("GITHUB", "33.34", "2024-04-02"),
		makeTransaction("SLACK T0001", "12.50", "2024-04-05"),
	}

	table, report := runEngine(t, invoices, txns)

	assert.Equal(t, KindExactAmountOnly.Label(), table.Rows[0].MatchLabel)
	for _, i := range []int{1, 2, 3} {
		assert.Equal(t, "github.pdf", table.Rows[i].FileName)
		assert.Equal(t, KindCombinationSum.Label(), table.Rows[i].MatchLabel)
	}
	assert.Equal(t, KindVendorOnly.Label(), table.Rows[4].MatchLabel)

	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "notion.pdf", report.Unmatched[0].FileName)
	assert.Equal(t, 3, report.MatchedCount())
	assert.Equal(t, 5, report.ClaimedRows())
	assert.Equal(t, 1, report.ByKind[KindExactAmountOnly])
	assert.Equal(t, 1, report.ByKind[KindCombinationSum])
	assert.Equal(t, 1, report.ByKind[KindVendorOnly])
	assert.Zero(t, report.ByKind[KindExactAmountDate])
}

func TestEngine_FallbackRunsAfterAllPrimaries(t *testing.T) {
	// The first invoice has no primary match; the second one claims row 0
	// in pass 1, so the fallback for the first must land on row 1.
	invoices := []ledger.InvoiceRecord{
		makeInvoice("AWS", "", "", "aws-missing.pdf"),
		makeInvoice("AWS", "75.00", "2024-05-01", "aws.pdf"),
	}
	txns := []ledger.TransactionRecord{
		makeTransaction("AWS EMEA", "75.00", "2024-05-01"),
		makeTransaction("AWS EMEA", "12.00", "2024-05-07"),
	}

	table, report := runEngine(t, invoices, txns)

	assert.Equal(t, "aws.pdf", table.Rows[0].FileName)
	assert.Equal(t, KindExactAmountDate.Label(), table.Rows[0].MatchLabel)
	assert.Equal(t, "aws-missing.pdf", table.Rows[1].FileName)
	assert.Equal(t, KindVendorOnly.Label(), table.Rows[1].MatchLabel)
	assert.Empty(t, report.Unmatched)
}

func TestEngine_ClaimExclusivity(t *testing.T) {
	invoices := []ledger.InvoiceRecord{
		makeInvoice("ADOBE", "52.99", "2024-02-03", "a1.pdf"),
		makeInvoice("ADOBE", "52.99", "2024-02-03", "a2.pdf"),
		makeInvoice("ADOBE", "52.99", "2024-02-03", "a3.pdf"),
		makeInvoice("ADOBE", "105.98", "2024-02-03", "a4.pdf"),
	}
	txns := []ledger.TransactionRecord{
		makeTransaction("ADOBE", "52.99", "2024-02-03"),
		makeTransaction("ADOBE", "52.99", "2024-02-03"),
	}

	table, report := runEngine(t, invoices, txns)

	claimed := map[int]string{}
	matched := map[string]bool{}
	for _, m := range report.Matches {
		assert.False(t, matched[m.InvoicePath], "invoice matched twice: %s", m.InvoicePath)
		matched[m.InvoicePath] = true
		for _, r := range m.Rows {
			_, dup := claimed[r]
			assert.False(t, dup, "row %d claimed twice", r)
			claimed[r] = m.InvoicePath
		}
	}

	assert.Equal(t, "a1.pdf", table.Rows[0].FileName)
	assert.Equal(t, "a2.pdf", table.Rows[1].FileName)
	assert.Len(t, report.Unmatched, 2)
	assert.Equal(t, report.InvoiceCount, report.MatchedCount()+len(report.Unmatched))
}

func TestEngine_Deterministic(t *testing.T) {
	build := func() ([]ledger.InvoiceRecord, []ledger.TransactionRecord) {
		invoices := []ledger.InvoiceRecord{
			makeInvoice("GITHUB", "30.00", "2024-03-05", "gh.pdf"),
			makeInvoice("AWS", "", "2024-03-05", "aws.pdf"),
			makeInvoice("GITHUB", "15.00", "2024-03-09", "gh2.pdf"),
		}
		txns := []ledger.TransactionRecord{
			makeTransaction("GITHUB", "10.00", "2024-03-05"),
			makeTransaction("GITHUB", "20.00", "2024-03-05"),
			makeTransaction("GITHUB", "15.00", "2024-03-05"),
			makeTransaction("AWS", "15.00", "2024-03-05"),
			makeTransaction("GITHUB", "15.00", "2024-03-05"),
		}
		return invoices, txns
	}

	inv1, tx1 := build()
	inv2, tx2 := build()
	table1, report1 := runEngine(t, inv1, tx1)
	table2, report2 := runEngine(t, inv2, tx2)

	assert.Equal(t, table1.Rows, table2.Rows)
	assert.Equal(t, report1.Unmatched, report2.Unmatched)
	assert.Equal(t, report1.Matches, report2.Matches)
}

func TestEngine_SentinelPassthrough(t *testing.T) {
	t.Run("real 666.66 is an ordinary amount", func(t *testing.T) {
		invoices := []ledger.InvoiceRecord{makeInvoice("DOCUSIGN", "666.66", "2024-06-01", "ds.pdf")}
		txns := []ledger.TransactionRecord{makeTransaction("DOCUSIGN INC", "666.66", "2024-06-01")}

		table, _ := runEngine(t, invoices, txns)

		assert.Equal(t, KindExactAmountDate.Label(), table.Rows[0].MatchLabel)
	})

	t.Run("amount with no equal row falls to vendor only", func(t *testing.T) {
		invoices := []ledger.InvoiceRecord{makeInvoice("DOCUSIGN", "666.66", "2024-06-01", "ds.pdf")}
		txns := []ledger.TransactionRecord{makeTransaction("DOCUSIGN INC", "40.00", "2024-06-10")}

		table, report := runEngine(t, invoices, txns)

		assert.Equal(t, KindVendorOnly.Label(), table.Rows[0].MatchLabel)
		assert.Empty(t, report.Unmatched)
	})

	t.Run("missing amount reaches only vendor only", func(t *testing.T) {
		invoices := []ledger.InvoiceRecord{makeInvoice("DOCUSIGN", "", "2024-06-01", "ds.pdf")}
		txns := []ledger.TransactionRecord{makeTransaction("DOCUSIGN INC", "666.66", "2024-06-01")}

		table, report := runEngine(t, invoices, txns)

		assert.Equal(t, KindVendorOnly.Label(), table.Rows[0].MatchLabel)
		assert.Equal(t, 1, report.ByKind[KindVendorOnly])
	})

	t.Run("missing everything and no vendor row is unmatched", func(t *testing.T) {
		invoices := []ledger.InvoiceRecord{makeInvoice(ledger.UnknownVendor, "", "", "scan.pdf")}
		txns := []ledger.TransactionRecord{makeTransaction("DOCUSIGN INC", "666.66", "2024-06-01")}

		table, report := runEngine(t, invoices, txns)

		assert.False(t, table.Rows[0].Annotated())
		require.Len(t, report.Unmatched, 1)
		assert.Equal(t, ledger.StatusFailed, report.Unmatched[0].Status)
	})
}

func TestEngine_SetData(t *testing.T) {
	t.Run("missing transaction column fails before mutation", func(t *testing.T) {
		engine := newTestEngine()
		txns := &ledger.TransactionTable{
			Columns: []string{"Vendor", "Amount", "Date"},
			Rows:    []ledger.TransactionRecord{makeTransaction("ADOBE", "1.00", "2024-01-01")},
		}

		err := engine.SetData(ledger.NewInvoiceTable(nil), txns)

		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrMissingColumn)
		assert.Contains(t, err.Error(), "Description")
		assert.Len(t, txns.Columns, 3, "no annotation columns added")
	})

	t.Run("duplicate invoice fails before mutation", func(t *testing.T) {
		engine := newTestEngine()
		txns := ledger.NewTransactionTable(nil)
		invoices := ledger.NewInvoiceTable([]ledger.InvoiceRecord{
			makeInvoice("ADOBE", "1.00", "2024-01-01", "a.pdf"),
			makeInvoice("ADOBE", "2.00", "2024-01-02", "a.pdf"),
		})

		err := engine.SetData(invoices, txns)

		assert.ErrorIs(t, err, ledger.ErrDuplicateInvoice)
		assert.Len(t, txns.Columns, len(ledger.TransactionColumns))

		_, err = engine.ExecuteInvoiceMatching()
		assert.ErrorIs(t, err, ErrDataNotSet)
	})

	t.Run("nil tables", func(t *testing.T) {
		assert.ErrorIs(t, newTestEngine().SetData(nil, nil), ErrDataNotSet)
	})

	t.Run("misconfigured engine", func(t *testing.T) {
		tables := func() (*ledger.InvoiceTable, *ledger.TransactionTable) {
			return ledger.NewInvoiceTable(nil), ledger.NewTransactionTable(nil)
		}

		inv, tx := tables()
		err := NewEngine(nil, NewVendorOnlyStrategy()).SetData(inv, tx)
		assert.ErrorIs(t, err, ErrNoStrategies)

		inv, tx = tables()
		err = NewEngine(DefaultPrimaryStrategies(DefaultCombinationConfig()), nil).SetData(inv, tx)
		assert.ErrorIs(t, err, ErrNoFallback)
	})

	t.Run("rebinding resets state", func(t *testing.T) {
		engine := newTestEngine()
		invoices := []ledger.InvoiceRecord{makeInvoice("ADOBE", "1.00", "2024-01-01", "a.pdf")}

		require.NoError(t, engine.SetData(ledger.NewInvoiceTable(invoices),
			ledger.NewTransactionTable([]ledger.TransactionRecord{makeTransaction("ADOBE", "1.00", "2024-01-01")})))
		_, err := engine.ExecuteInvoiceMatching()
		require.NoError(t, err)
		assert.Equal(t, 1, engine.State().ClaimedInvoices())

		require.NoError(t, engine.SetData(ledger.NewInvoiceTable(invoices),
			ledger.NewTransactionTable([]ledger.TransactionRecord{makeTransaction("ADOBE", "1.00", "2024-01-01")})))
		assert.Zero(t, engine.State().ClaimedInvoices())
		_, err = engine.ExecuteInvoiceMatching()
		assert.NoError(t, err)
	})
}

func TestEngine_ExecuteGuards(t *testing.T) {
	engine := newTestEngine()
	_, err := engine.ExecuteInvoiceMatching()
	assert.ErrorIs(t, err, ErrDataNotSet)

	require.NoError(t, engine.SetData(ledger.NewInvoiceTable(nil), ledger.NewTransactionTable(nil)))
	report, err := engine.ExecuteInvoiceMatching()
	require.NoError(t, err)
	assert.Zero(t, report.MatchedCount())

	_, err = engine.ExecuteInvoiceMatching()
	assert.ErrorIs(t, err, ErrAlreadyMatched)
}

func TestEngine_RejectsUnavailableRows(t *testing.T) {
	// Arrange: a broken strategy proposes an out-of-range row, then a
	// duplicated row; the engine must skip it and try the next strategy.
	primary := []Strategy{
		&fakeStrategy{kind: KindExactAmountDate, rows: []int{5}},
		&fakeStrategy{kind: KindExactAmountOnly, rows: []int{0, 0}},
		&fakeStrategy{kind: KindCombinationSum, rows: []int{0}},
	}
	engine := NewEngine(primary, NewVendorOnlyStrategy(), WithLogger(quietLogger()))
	table := ledger.NewTransactionTable([]ledger.TransactionRecord{makeTransaction("ADOBE", "1.00", "2024-01-01")})
	invoices := ledger.NewInvoiceTable([]ledger.InvoiceRecord{
		makeInvoice("ADOBE", "1.00", "2024-01-01", "a.pdf"),
		makeInvoice("ADOBE", "1.00", "2024-01-01", "b.pdf"),
	})
	require.NoError(t, engine.SetData(invoices, table))

	// Act
	report, err := engine.ExecuteInvoiceMatching()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, KindCombinationSum.Label(), table.Rows[0].MatchLabel)
	assert.Equal(t, "a.pdf", table.Rows[0].FileName)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "b.pdf", report.Unmatched[0].FileName)
}

func TestEngine_SequenceFileNames(t *testing.T) {
	rows := make([]ledger.TransactionRecord, 10)
	for i := range rows {
		rows[i] = makeTransaction("VENDOR", "1.00", "2024-01-01")
		rows[i].FileName = fmt.Sprintf("f%d.pdf", i)
	}
	table := ledger.NewTransactionTable(rows)
	engine := newTestEngine()

	assert.ErrorIs(t, engine.SequenceFileNames(), ErrDataNotSet)

	require.NoError(t, engine.SetData(ledger.NewInvoiceTable(nil), table))
	_, err := engine.ExecuteInvoiceMatching()
	require.NoError(t, err)
	require.NoError(t, engine.SequenceFileNames())

	assert.Equal(t, "8 - f0.pdf", table.Rows[0].FileName)
	assert.Equal(t, "12 - f4.pdf", table.Rows[4].FileName)
	assert.Equal(t, "17 - f9.pdf", table.Rows[9].FileName)

	err = engine.SequenceFileNames()
	assert.ErrorIs(t, err, ErrAlreadySequenced)
	assert.Equal(t, "8 - f0.pdf", table.Rows[0].FileName, "second call must not change names")
}

func TestEngine_SequenceOffset(t *testing.T) {
	table := ledger.NewTransactionTable([]ledger.TransactionRecord{makeTransaction("A", "1", "2024-01-01")})
	engine := newTestEngine(WithSequenceOffset(1))
	require.NoError(t, engine.SetData(ledger.NewInvoiceTable(nil), table))
	_, err := engine.ExecuteInvoiceMatching()
	require.NoError(t, err)

	require.NoError(t, engine.SequenceFileNames())

	assert.Equal(t, "1 - ", table.Rows[0].FileName)
}

func TestEngine_SequenceFileNamesRequiresMatching(t *testing.T) {
	// Arrange
	invoices := ledger.NewInvoiceTable([]ledger.InvoiceRecord{
		makeInvoice("ADOBE", "", "", "adobe.pdf"),
	})
	table := ledger.NewTransactionTable([]ledger.TransactionRecord{
		makeTransaction("ADOBE INC", "52.99", "2024-02-03"),
	})
	engine := newTestEngine()
	require.NoError(t, engine.SetData(invoices, table))

	// Act
	early := engine.SequenceFileNames()
	report, err := engine.ExecuteInvoiceMatching()

	// Assert
	assert.ErrorIs(t, early, ErrNotMatched)
	require.NoError(t, err)
	assert.Empty(t, report.Unmatched, "a refused sequencing call must leave rows open for vendor-only")
	assert.Equal(t, 1, report.ByKind[KindVendorOnly])
	assert.Equal(t, KindVendorOnly.Label(), table.Rows[0].MatchLabel)

	require.NoError(t, engine.SequenceFileNames())
	assert.Equal(t, "8 - adobe.pdf", table.Rows[0].FileName)
}
