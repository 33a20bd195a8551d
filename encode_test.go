package folio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLedger(t *testing.T) {
	const ledger = "\ufeffDate,Type,Symbol,Quantity,Price,Amount,Commission,Currency\n" +
		"2025-01-02,Deposit,,0,,1000,,USD\n" +
		"2025-01-03,Buy,AAPL,10,100,-1000,1.5,USD\n"

	txs, err := DecodeLedger(strings.NewReader(ledger), "broker.csv", 7)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "Deposit", txs[0].Type)
	assert.Equal(t, "broker.csv", txs[0].Source)
	assert.Equal(t, 7, txs[0].Seq)
	assert.Equal(t, 8, txs[1].Seq)

	buy := txs[1]
	assert.Equal(t, day("2025-01-03"), buy.Date)
	assert.Equal(t, "AAPL", buy.Symbol)
	assert.True(t, buy.Quantity.Equal(Q(10)))
	assert.True(t, buy.Amount.Equal(USD(-1000)))
	assert.True(t, buy.Commission.Equal(USD(1.5)))
	assert.Equal(t, "USD", buy.Currency())
}

func TestDecodeLedger_Errors(t *testing.T) {
	tests := []struct {
		name   string
		ledger string
	}{
		{"missing column", "Date,Type,Quantity,Currency\n2025-01-02,Buy,1,USD\n"},
		{"bad date", "Date,Type,Quantity,Amount,Currency\n2025-13-40,Buy,1,-10,USD\n"},
		{"bad currency", "Date,Type,Quantity,Amount,Currency\n2025-01-02,Buy,1,-10,XXY\n"},
		{"bad quantity", "Date,Type,Quantity,Amount,Currency\n2025-01-02,Buy,ten,-10,USD\n"},
		{"blank currency", "Date,Type,Quantity,Amount,Currency\n2025-01-02,Buy,1,-10,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLedger(strings.NewReader(tt.ledger), "test.csv", 0)
			assert.Error(t, err)
		})
	}
}

func TestDecodeLedger_BlankCurrency(t *testing.T) {
	const ledger = "Date,Type,Symbol,Quantity,Amount,Currency\n" +
		"2025-01-10,Stock Split,X,20,0,\n"
	txs, err := DecodeLedger(strings.NewReader(ledger), "test.csv", 0)
	require.NoError(t, err, "rows without amounts need no currency")
	require.Len(t, txs, 1)
	assert.Empty(t, txs[0].Currency())

	_, err = DecodeLedger(strings.NewReader(ledger+"2025-01-11,Buy,X,1,-10,\n"), "test.csv", 0)
	assert.ErrorContains(t, err, "line 3")
	assert.ErrorContains(t, err, "missing currency")
}

func TestEncodeLedger(t *testing.T) {
	txs := []Transaction{
		tx("2025-01-03", "Buy", "AAPL", 10, 100, -1000, 1),
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeLedger(&buf, txs))

	got, err := DecodeLedger(&buf, "encoded", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.True(t, got[0].Amount.Equal(USD(-1000)))
	assert.True(t, got[0].Commission.Equal(USD(1)))
}

func TestDecodePrices(t *testing.T) {
	const csv = "Date,Open,High,Low,Close,Volume,Dividends,StockSplits\n" +
		"2025-01-02 00:00:00-05:00,10,11,9,10.5,1000,0,0\n" +
		"2025-01-06,11,12,10,11.5,1000,0.25,2\n"

	p, err := DecodePrices(strings.NewReader(csv), "AAPL", "USD")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	c, ok := p.Close(day("2025-01-03"))
	require.True(t, ok, "close is forward filled")
	assert.True(t, c.Equal(USD(10.5)))

	s, ok := p.Split(day("2025-01-06"))
	require.True(t, ok)
	assert.Equal(t, Split{Numerator: 2, Denominator: 1}, s)

	d, ok := p.Dividend(day("2025-01-06"))
	require.True(t, ok)
	assert.True(t, d.Equal(USD(0.25)))

	_, err = DecodePrices(strings.NewReader("Date,Open\n2025-01-02,1\n"), "AAPL", "USD")
	assert.Error(t, err, "Close is required")
}

func TestDecodeRates(t *testing.T) {
	rates := NewRates("EUR")
	err := DecodeRates(strings.NewReader("Date,Currency,Rate\n2025-01-02,USD,0.9\n"), rates)
	require.NoError(t, err)

	got, err := rates.Rate("USD", day("2025-01-05"))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.9")))
}

func TestEncodeDaily(t *testing.T) {
	axis := date.Range{From: day("2025-01-01"), To: day("2025-01-02")}
	p := &PortfolioReport{
		Value:       date.NewSeries[Money](axis),
		Realized:    date.NewSeries[Money](axis),
		Unrealized:  date.NewSeries[Money](axis),
		Income:      date.NewSeries[Money](axis),
		NetDeposits: date.NewSeries[Money](axis),
	}
	p.Realized.Set(day("2025-01-01"), USD(0))
	p.Value.Set(day("2025-01-02"), USD(10))
	p.Realized.Set(day("2025-01-02"), USD(1))

	var buf bytes.Buffer
	require.NoError(t, EncodeDaily(&buf, p, date.Date{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"date":"2025-01-01","realized":{"currency":"USD","amount":"0"}}`, lines[0])
	assert.JSONEq(t, `{"date":"2025-01-02","value":{"currency":"USD","amount":"10"},"realized":{"currency":"USD","amount":"1"}}`, lines[1])
}
