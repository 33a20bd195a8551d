package folio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRates_RoundTrip(t *testing.T) {
	r := NewRates("USD")
	r.Add("EUR", day("2025-01-02"), dec("1.0937"))

	amounts := []float64{0.01, 123.45, 99999.99, 1e-4}
	for _, a := range amounts {
		usd, err := r.Convert(EUR(a), day("2025-01-03"))
		require.NoError(t, err)
		assert.Equal(t, "USD", usd.Currency())
		back, err := r.FromBase(usd, "EUR", day("2025-01-03"))
		require.NoError(t, err)
		assert.InDelta(t, a, back.Decimal().InexactFloat64(), 1e-9)
	}
}

func TestRates_ForwardFillOnly(t *testing.T) {
	r := NewRates("EUR")
	r.Add("USD", day("2025-01-02"), dec("0.9"))
	r.Add("USD", day("2025-01-06"), dec("0.8"))

	tests := []struct {
		on      string
		want    string
		missing bool
	}{
		{"2025-01-01", "", true},
		{"2025-01-02", "0.9", false},
		{"2025-01-04", "0.9", false},
		{"2025-01-06", "0.8", false},
		{"2025-03-01", "0.8", false},
	}
	for _, tc := range tests {
		t.Run(tc.on, func(t *testing.T) {
			got, err := r.Rate("USD", day(tc.on))
			if tc.missing {
				assert.True(t, errors.Is(err, ErrMissingFxRate))
				var missing *MissingFxRateError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, "USD", missing.Currency)
				assert.Equal(t, day(tc.on), missing.Date)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tc.want)), "got %v want %v", got, tc.want)
		})
	}
}

func TestRates_Pairs(t *testing.T) {
	r := NewRates("USD")
	require.NoError(t, r.AddPair("EUR", "USD", day("2025-01-02"), dec("1.1")))
	require.NoError(t, r.AddPair("USD", "GBP", day("2025-01-02"), dec("0.8")))
	require.Error(t, r.AddPair("EUR", "GBP", day("2025-01-02"), dec("0.85")))

	gbp, err := r.Rate("GBP", day("2025-01-02"))
	require.NoError(t, err)
	assert.True(t, gbp.Equal(dec("1.25")), "inverse pair is inverted, got %v", gbp)

	base, err := r.Convert(USD(10), day("2000-01-01"))
	require.NoError(t, err)
	assert.True(t, base.Equal(USD(10)), "base currency never needs a rate")
}

func TestRates_MaxGap(t *testing.T) {
	r := NewRates("USD")
	r.MaxGap = 3
	r.Add("EUR", day("2025-01-01"), dec("1.1"))

	_, err := r.Rate("EUR", day("2025-01-04"))
	assert.NoError(t, err)
	_, err = r.Rate("EUR", day("2025-01-05"))
	assert.True(t, errors.Is(err, ErrMissingFxRate))
}
