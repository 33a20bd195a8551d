package folio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, txs ...Transaction) (*Streams, error) {
	t.Helper()
	for i := range txs {
		txs[i].Seq = i
	}
	rows, err := Classify(testMapping, txs)
	require.NoError(t, err)
	return Normalize(rows)
}

func TestNormalize_Streams(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-05", "Buy", "X", 10, 100, -1000, 2),
		tx("2025-01-02", "Deposit", "", 0, 0, 2000, 0),
		tx("2025-01-05", "FX Fee", "", 0, 0, -1, 0),
		tx("2025-01-05", "Buy", "X", 5, 101, 0, 1), // zero amount falls back to price × quantity
		tx("2025-02-01", "Dividend", "X", 0, 0, 12.5, 0),
		tx("2025-02-02", "Interest", "", 0, 0, 3, 0),
	)
	require.NoError(t, err)

	require.Len(t, s.Trades, 2)
	assert.Equal(t, 0, s.Trades[0].Seq, "same day trades keep ledger order")
	assert.True(t, s.Trades[0].Gross.Equal(USD(1000)))
	assert.True(t, s.Trades[0].Cost().Equal(USD(1002)))
	assert.True(t, s.Trades[1].Gross.Equal(USD(505)))

	require.Len(t, s.CashFlows, 1)
	require.Len(t, s.Income, 2)
	assert.Len(t, s.PortfolioIncome(), 1)
	assert.Equal(t, 1, s.Audit.IgnoredCount())
	assert.Equal(t, map[string]int{"FX Fee": 1}, s.Audit.IgnoredByType())
	assert.Equal(t, []string{"X"}, s.Symbols())
	assert.Equal(t, day("2025-01-02"), s.Span().From)
	assert.Equal(t, day("2025-02-02"), s.Span().To)
}

func TestStreams_SpanSkipsIgnored(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-02", "Deposit", "", 0, 0, 1000, 0),
		tx("2025-01-03", "FX Fee", "", 0, 0, -1, 0),
	)
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-02"), s.Span().To, "ignored rows have no effect on the window")
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want error
	}{
		{"negative deposit", []Transaction{tx("2025-01-02", "Deposit", "", 0, 0, -100, 0)}, ErrInvalidCashFlowSign},
		{"positive withdrawal", []Transaction{tx("2025-01-02", "Withdrawal", "", 0, 0, 100, 0)}, ErrInvalidCashFlowSign},
		{"zero quantity trade", []Transaction{tx("2025-01-02", "Buy", "X", 0, 100, -100, 0)}, ErrInvalidEntry},
		{"trade without symbol", []Transaction{tx("2025-01-02", "Buy", "", 1, 100, -100, 0)}, ErrInvalidEntry},
		{"negative commission", []Transaction{tx("2025-01-02", "Buy", "X", 1, 100, -100, -1)}, ErrInvalidEntry},
		{"negative income", []Transaction{tx("2025-01-02", "Dividend", "X", 0, 0, -5, 0)}, ErrInvalidEntry},
		{"lone zero corporate action", []Transaction{tx("2025-01-02", "Stock Split", "X", 0, 0, 0, 0)}, ErrAmbiguousCorporateAction},
		{"unpaired split", []Transaction{tx("2025-01-02", "Stock Split", "X", 10, 0, 0, 0)}, ErrAmbiguousCorporateAction},
		{"irrational split", []Transaction{
			tx("2025-01-02", "Stock Split", "X", -2000, 0, 0, 0),
			tx("2025-01-02", "Stock Split", "X", 2001, 0, 0, 0),
		}, ErrAmbiguousCorporateAction},
		{"merger adding units", []Transaction{tx("2025-01-02", "Merger/Acquisition", "X", 5, 0, 100, 0)}, ErrAmbiguousCorporateAction},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalize(t, tc.txs...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNormalize_CashFlowSignIsReported(t *testing.T) {
	_, err := normalize(t, tx("2025-01-02", "Deposit", "", 0, 0, -100, 0))
	var sign *InvalidCashFlowSignError
	require.True(t, errors.As(err, &sign))
	assert.Equal(t, Deposit, sign.Direction)
	assert.True(t, sign.Amount.Equal(USD(-100)), "the amount is reported as is")
}

func TestNormalize_CorporateEvents(t *testing.T) {
	tests := []struct {
		name string
		rows [][2]float64 // quantity, amount
		want Split
	}{
		{"2-for-1", [][2]float64{{-10, 0}, {20, 0}}, Split{2, 1}},
		{"3-for-2", [][2]float64{{-10, 0}, {15, 0}}, Split{3, 2}},
		{"1-for-10 reverse", [][2]float64{{-100, 0}, {10, 0}}, Split{1, 10}},
		{"rounded fractional shares", [][2]float64{{-7, 0}, {2.333333, 0}}, Split{1, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var txs []Transaction
			for _, r := range tc.rows {
				txs = append(txs, tx("2025-03-03", "Stock Split", "X", r[0], 0, r[1], 0))
			}
			s, err := normalize(t, txs...)
			require.NoError(t, err)
			require.Len(t, s.Corporate, 1)
			assert.Equal(t, EventSplit, s.Corporate[0].Kind)
			assert.Equal(t, tc.want, s.Corporate[0].Split)
		})
	}

	t.Run("merger", func(t *testing.T) {
		s, err := normalize(t,
			tx("2025-03-03", "Merger/Acquisition", "X", -10, 0, 0, 0),
			tx("2025-03-03", "Merger/Acquisition", "X", 0, 0, 1200, 0),
		)
		require.NoError(t, err)
		require.Len(t, s.Corporate, 1)
		e := s.Corporate[0]
		assert.Equal(t, EventMerger, e.Kind)
		assert.True(t, e.Merger.Quantity.Equal(Q(10)))
		assert.True(t, e.Merger.Proceeds.Equal(USD(1200)))
	})
}
