package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) date.Date { return date.MustParse(s) }

var mapping = folio.Mapping{
	"Buy":     {Action: folio.ActionTrade},
	"Deposit": {Action: folio.ActionCashFlow, Direction: folio.Deposit},
	"Fee":     {Action: folio.ActionIgnore},
}

// window ends after the last ledger entry: the ignored fee does not extend
// the ledger span.
var window = date.Range{To: day("2025-01-03")}

// valuate runs a deposit, a buy of 10 AAPL at 100 and an ignored fee,
// AAPL closing at 110 on the last day.
func valuate(t *testing.T, prices map[string]*folio.PriceSeries) (*folio.Streams, *folio.Report) {
	t.Helper()
	txs := []folio.Transaction{
		{Date: day("2025-01-02"), Type: "Deposit", Amount: folio.M(1000, "USD"), Seq: 0},
		{Date: day("2025-01-02"), Type: "Buy", Symbol: "AAPL", Quantity: folio.Q(10), Price: folio.M(100, "USD"), Amount: folio.M(-1000, "USD"), Seq: 1},
		{Date: day("2025-01-03"), Type: "Fee", Amount: folio.M(-1, "USD"), Seq: 2},
	}
	rows, err := folio.Classify(mapping, txs)
	require.NoError(t, err)
	streams, err := folio.Normalize(rows)
	require.NoError(t, err)
	r, err := folio.Valuate(context.Background(), folio.Input{Streams: streams, Prices: prices, Rates: folio.NewRates("USD"), Range: window})
	require.NoError(t, err)
	return streams, r
}

func aapl() map[string]*folio.PriceSeries {
	return map[string]*folio.PriceSeries{
		"AAPL": folio.NewPriceSeries("AAPL", "USD").
			AddClose(day("2025-01-02"), decimal.NewFromInt(100)).
			AddClose(day("2025-01-03"), decimal.NewFromInt(110)),
	}
}

func TestRenderHoldings(t *testing.T) {
	_, r := valuate(t, aapl())

	md := RenderHoldings(NewHoldings(r, day("2025-01-03")))
	assert.Contains(t, md, "# Holdings on 2025-01-03")
	assert.Contains(t, md, "| AAPL | 10 | $110.00 | $1,000.00 | $1,100.00 | +$100.00 | 1 |")
	assert.Contains(t, md, "**Total value**: $1,100.00")
	assert.Contains(t, md, "**Net deposits**: $1,000.00")
	assert.NotContains(t, md, "Failures")
}

func TestRenderHoldings_Unpriced(t *testing.T) {
	_, r := valuate(t, nil)

	md := RenderHoldings(NewHoldings(r, day("2025-01-03")))
	assert.Contains(t, md, "| AAPL | 10 | n/a | $1,000.00 | n/a | n/a | 1 |")
	assert.Contains(t, md, "**Total value**: n/a", "absent, never zero")
}

func TestRenderHoldings_Empty(t *testing.T) {
	_, r := valuate(t, aapl())

	md := RenderHoldings(NewHoldings(r, day("2025-01-01")))
	assert.Contains(t, md, "Nothing held.")
}

func TestRenderGains(t *testing.T) {
	_, r := valuate(t, aapl())

	md := RenderGains(NewGains(r.Base, "monthly", r.Gains(date.Monthly)))
	assert.Contains(t, md, "# monthly gains (USD)")
	assert.Contains(t, md, "## 2025-01-02..2025-01-03")
	assert.Contains(t, md, "| AAPL | - | +$100.00 | +$100.00 | - | +$100.00 |")
	assert.Contains(t, md, "| **Total** | **-** | **+$100.00** |")
}

func TestNewGains(t *testing.T) {
	jan := date.Range{From: day("2025-01-01"), To: day("2025-01-31")}
	feb := date.Range{From: day("2025-02-01"), To: day("2025-02-28")}
	zero := folio.M(0, "EUR")
	rec := func(symbol string, rg date.Range) folio.GainRecord {
		return folio.GainRecord{Symbol: symbol, Range: rg, Realized: zero, Unrealized: zero, Income: zero}
	}
	g := NewGains("EUR", "monthly", []folio.GainRecord{
		rec("A", jan), rec("B", jan), rec("", jan),
		rec("A", feb), rec("", feb),
	})
	require.Len(t, g.Periods, 2)
	assert.Len(t, g.Periods[0].Rows, 2)
	assert.Len(t, g.Periods[1].Rows, 1)
	assert.Equal(t, "Total", g.Periods[1].Portfolio.Symbol)
}

func TestRenderGains_Unmarked(t *testing.T) {
	jan := date.Range{From: day("2025-01-01"), To: day("2025-01-31")}
	zero := folio.M(0, "USD")
	md := RenderGains(NewGains("USD", "monthly", []folio.GainRecord{
		{Symbol: "Y", Range: jan, Realized: zero, Unrealized: zero, Income: folio.M(5, "USD"), Unmarked: true},
		{Range: jan, Realized: zero, Unrealized: zero, Income: folio.M(5, "USD"), Unmarked: true},
	}))
	assert.Contains(t, md, "| Y | - | n/a | n/a | +$5.00 | n/a |", "an unpriced end is absent, never zero")
	assert.Contains(t, md, "| **Total** | **-** | **n/a** | **n/a** | **+$5.00** | **n/a** |")
}

func TestRenderAudit(t *testing.T) {
	_, r := valuate(t, aapl())

	tests := []struct {
		name     string
		audit    *Audit
		contains []string
	}{
		{
			name:     "clean",
			audit:    NewAudit(folio.Audit{}, nil, nil),
			contains: []string{"Every ledger row was applied as is."},
		},
		{
			name:     "ignored",
			audit:    NewAudit(r.Audit, nil, nil),
			contains: []string{"## Ignored rows", "| Fee | 1 |"},
		},
		{
			name: "unmapped and failures",
			audit: NewAudit(folio.Audit{},
				[]folio.UnmappedType{{Type: "Spin Off", First: day("2025-03-01"), Count: 2}},
				map[string]error{"MSFT": errors.New("oversold")}),
			contains: []string{"| Spin Off | 2025-03-01 | 2 |", "- **MSFT**: oversold"},
		},
		{
			name: "suppressed",
			audit: NewAudit(folio.Audit{Suppressed: []folio.SuppressedSplit{{
				Symbol: "NVDA", Date: day("2024-06-10"),
				Ledger:   folio.Split{Numerator: 10, Denominator: 1},
				Provider: folio.Split{Numerator: 10, Denominator: 1},
			}}}, nil, nil),
			contains: []string{"| 2024-06-10 | NVDA | 10:1 | 10:1 |"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := RenderAudit(tt.audit)
			for _, c := range tt.contains {
				assert.Contains(t, md, c)
			}
		})
	}
}

func TestRenderBenchmark(t *testing.T) {
	streams, r := valuate(t, aapl())
	spy := folio.NewPriceSeries("SPY", "USD").
		Add(folio.Bar{Date: day("2025-01-02"), Open: decimal.NewFromInt(50), Close: decimal.NewFromInt(50)}).
		Add(folio.Bar{Date: day("2025-01-03"), Open: decimal.NewFromInt(55), Close: decimal.NewFromInt(55)})

	b, err := folio.SimulateBenchmark(folio.BenchmarkInput{Streams: streams, Benchmark: spy, Rates: folio.NewRates("USD"), Range: window})
	require.NoError(t, err)

	md := RenderBenchmark(NewComparison(b, r))
	assert.Contains(t, md, "# Benchmark SPY")
	assert.Contains(t, md, "merger proceeds excluded")
	assert.Contains(t, md, "| Value | $1,100.00 | $1,100.00 |")
	assert.Contains(t, md, "| Gains | +$100.00 | +$100.00 |")
	assert.Contains(t, md, "**Difference**: -")
}
