package folio

import (
	"context"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Gains(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-10", "Buy", "X", 10, 100, -1000, 0),
		tx("2025-02-10", "Dividend", "X", 0, 0, 20, 0),
		tx("2025-02-20", "Sell", "X", -4, 130, 520, 0),
		tx("2025-03-05", "Interest", "", 0, 0, 1, 0),
	)
	require.NoError(t, err)
	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices: map[string]*PriceSeries{
			"X": closes("X", "USD", map[string]string{"2025-01-10": "100", "2025-01-31": "110", "2025-02-28": "120", "2025-03-05": "125"}),
		},
		Rates: NewRates("USD"),
	})
	require.NoError(t, err)

	records := report.Gains(date.Monthly)
	require.Len(t, records, 6, "one record for X and one for the portfolio per month")

	jan, feb, mar := records[0], records[2], records[4]
	assert.Equal(t, "X", jan.Symbol)
	assert.Equal(t, date.Range{From: day("2025-01-10"), To: day("2025-01-31")}, jan.Range)
	assert.True(t, jan.Unrealized.Equal(USD(100)))
	assert.True(t, jan.Realized.IsZero())

	// 4 sold at 130 out of a 100 lot, the 6 left move from 110 to 120.
	assert.True(t, feb.Realized.Equal(USD(120)))
	assert.True(t, feb.Unrealized.Equal(USD(20)), "got %v", feb.Unrealized)
	assert.True(t, feb.Income.Equal(USD(20)))
	assert.True(t, feb.CapitalGains().Equal(USD(140)))

	assert.True(t, mar.Unrealized.Equal(USD(30)))
	portfolioMar := records[5]
	assert.Equal(t, "", portfolioMar.Symbol)
	assert.True(t, portfolioMar.Income.Equal(USD(1)), "interest is portfolio income")

	total := report.GainsOver(report.Range)
	x := total[0]
	// capital gains over the whole window: realized plus the final mark
	assert.True(t, x.CapitalGains().Equal(USD(120+6*25)))
	assert.True(t, x.Total().Equal(USD(120+150+20)))
}

func TestReport_GainsUnmarked(t *testing.T) {
	s, err := normalize(t,
		tx("2025-01-02", "Buy", "X", 10, 100, -1000, 0),
		tx("2025-01-02", "Buy", "Y", 1, 50, -50, 0),
		tx("2025-01-06", "Buy", "Y", 1, 50, -50, 0),
	)
	require.NoError(t, err)
	report, err := Valuate(context.Background(), Input{
		Streams: s,
		Prices: map[string]*PriceSeries{
			"X": closes("X", "USD", map[string]string{"2025-01-02": "100", "2025-01-03": "110"}),
			"Y": closes("Y", "USD", map[string]string{"2025-01-04": "60"}),
		},
		Rates: NewRates("USD"),
	})
	require.NoError(t, err)

	early := report.GainsOver(date.Range{From: day("2025-01-02"), To: day("2025-01-03")})
	require.Len(t, early, 3)
	assert.False(t, early[0].Unmarked, "X is priced")
	assert.True(t, early[0].Unrealized.Equal(USD(100)))
	assert.True(t, early[1].Unmarked, "Y is held but not priced yet")
	assert.True(t, early[1].Unrealized.IsZero())
	assert.True(t, early[2].Unmarked, "the portfolio record carries it")
	_, ok := report.Portfolio.Unrealized.At(day("2025-01-03"))
	assert.False(t, ok)

	late := report.GainsOver(date.Range{From: day("2025-01-05"), To: day("2025-01-06")})
	assert.False(t, late[1].Unmarked)
	assert.False(t, late[2].Unmarked)
	assert.True(t, late[1].Unrealized.Equal(USD(10)), "got %v", late[1].Unrealized)
}
