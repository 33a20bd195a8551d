package folio

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(symbol, currency string, points map[string]string) *PriceSeries {
	p := NewPriceSeries(symbol, currency)
	for on, v := range points {
		p.AddClose(day(on), dec(v))
	}
	return p
}

func at(t *testing.T, s *date.Series[Money], on string) Money {
	t.Helper()
	v, ok := s.At(day(on))
	require.True(t, ok, "no value on %s", on)
	return v
}

func TestValuate_BuyRiseSell(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-01", "Deposit", "", 0, 0, 1000, 0),
		tx("2025-01-01", "Buy", "X", 10, 100, -1000, 0),
		tx("2025-03-02", "Sell", "X", -10, 150, 1500, 0),
		tx("2025-03-02", "Buy", "Y", 15, 100, -1500, 0),
	)
	require.NoError(t, err)

	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices: map[string]*PriceSeries{
			"X": closes("X", "USD", map[string]string{"2025-01-01": "100", "2025-03-01": "150", "2025-03-02": "150"}),
			"Y": closes("Y", "USD", map[string]string{"2025-03-02": "100"}),
		},
		Rates:   NewRates("USD"),
		Options: Options{Workers: 2},
	})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	x := report.Symbols["X"]
	assert.True(t, at(t, x.Unrealized, "2025-03-01").Equal(USD(500)))
	assert.True(t, at(t, x.Realized, "2025-03-01").IsZero())
	assert.True(t, at(t, x.Value, "2025-02-14").Equal(USD(1000)), "close is forward filled")

	assert.True(t, at(t, x.Realized, "2025-03-02").Equal(USD(500)))
	assert.True(t, at(t, x.Unrealized, "2025-03-02").IsZero())

	y := report.Symbols["Y"]
	assert.True(t, at(t, y.Unrealized, "2025-03-02").IsZero(), "a new lot starts with no gain")

	p := report.Portfolio
	assert.True(t, at(t, p.Value, "2025-03-02").Equal(USD(1500)))
	assert.True(t, at(t, p.Realized, "2025-03-02").Equal(USD(500)))
	assert.True(t, at(t, p.NetDeposits, "2025-03-02").Equal(USD(1000)))

	snap := report.Snapshot(day("2025-03-02"))
	require.Len(t, snap, 1)
	assert.Equal(t, "Y", snap[0].Symbol)
	assert.True(t, snap[0].Priced)
	assert.Equal(t, 1, snap[0].Lots)
}

func TestValuate_AbsentBeforeFirstPrice(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-01", "Buy", "X", 10, 100, -1000, 0),
		tx("2025-01-01", "Buy", "Y", 1, 10, -10, 0),
		tx("2025-01-10", "Sell", "Y", -1, 10, 10, 0),
	)
	require.NoError(t, err)
	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices: map[string]*PriceSeries{
			"X": closes("X", "USD", map[string]string{"2025-01-03": "101", "2025-01-06": "102"}),
			"Y": closes("Y", "USD", map[string]string{"2025-01-01": "10"}),
		},
		Rates: NewRates("USD"),
	})
	require.NoError(t, err)

	x := report.Symbols["X"]
	_, ok := x.Value.At(day("2025-01-02"))
	assert.False(t, ok, "no value before the first trading day")
	_, ok = report.Portfolio.Value.At(day("2025-01-02"))
	assert.False(t, ok, "portfolio value is absent while a held symbol is unpriced")

	assert.True(t, at(t, x.Value, "2025-01-05").Equal(USD(1010)), "weekend uses the last close")
	assert.True(t, at(t, report.Portfolio.Value, "2025-01-10").Equal(USD(1020)))
}

func TestValuate_FailuresAreIsolated(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-01", "Buy", "X", 10, 100, -1000, 0),
		tx("2025-01-02", "Sell", "X", -20, 100, 2000, 0),
		tx("2025-01-01", "Buy", "Y", 1, 10, -10, 0),
	)
	require.NoError(t, err)
	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices:  map[string]*PriceSeries{"Y": closes("Y", "USD", map[string]string{"2025-01-01": "12"})},
		Rates:   NewRates("USD"),
	})
	require.NoError(t, err)

	assert.Contains(t, report.Failures, "X")
	assert.Contains(t, report.Symbols, "Y")
	assert.ErrorIs(t, report.Err(), ErrOversoldPosition)
	assert.True(t, at(t, report.Portfolio.Value, "2025-01-02").Equal(USD(12)))
}

func TestValuate_Currencies(t *testing.T) {
	s, err := normalize(t,
		Transaction{Date: day("2025-01-02"), Type: "Buy", Symbol: "SAP", Quantity: Q(10), Amount: EUR(-1000)},
		Transaction{Date: day("2025-01-03"), Type: "Dividend", Symbol: "SAP", Amount: EUR(10)},
	)
	require.NoError(t, err)
	rates := NewRates("USD")
	rates.Add("EUR", day("2025-01-02"), dec("1.1"))
	rates.Add("EUR", day("2025-01-03"), dec("1.2"))

	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices:  map[string]*PriceSeries{"SAP": closes("SAP", "EUR", map[string]string{"2025-01-02": "100", "2025-01-03": "110"})},
		Rates:   rates,
	})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	sap := report.Symbols["SAP"]
	assert.True(t, at(t, sap.Value, "2025-01-03").Equal(USD(1320)))
	assert.True(t, at(t, sap.Unrealized, "2025-01-03").Equal(USD(120)))
	assert.True(t, at(t, sap.Income, "2025-01-03").Equal(USD(12)))

	// without rates the symbol fails, it is never valued at a made up rate
	report, err = Valuate(context.Background(), Input{
		Streams: s,
		Prices:  map[string]*PriceSeries{"SAP": closes("SAP", "EUR", map[string]string{"2025-01-02": "100"})},
		Rates:   NewRates("USD"),
	})
	require.NoError(t, err)
	var missing *MissingFxRateError
	require.True(t, errors.As(report.Failures["SAP"], &missing))
	assert.Equal(t, "EUR", missing.Currency)
}

func TestValuate_Cancelled(t *testing.T) {
	s, err := normalize(t, tx("2025-01-01", "Buy", "X", 10, 100, -1000, 0))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Valuate(ctx, Input{Streams: s, Rates: NewRates("USD")})
	assert.ErrorIs(t, err, context.Canceled)
}
