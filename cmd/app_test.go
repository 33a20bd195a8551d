package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	header  = "Date,Type,Symbol,Quantity,Price,Amount,Commission,Currency\n"
	mapping = `{
		"Buy": {"action": "trade"},
		"Deposit": {"action": "cash_flow", "direction": "deposit"},
		"Fee": {"action": "ignore"}
	}`
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// workspace writes a two files ledger, a mapping and AAPL prices.
func workspace(t *testing.T, mappingJSON string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	prices := filepath.Join(dir, "prices")
	require.NoError(t, os.Mkdir(prices, 0o755))
	write(t, prices, "AAPL.csv", "Date,Close\n2025-01-02,100\n2025-01-03,110\n")
	return &config.Config{
		BaseCurrency: "USD",
		LedgerFiles: []string{
			write(t, dir, "2024.csv", header+
				"2025-01-02,Deposit,,0,,1000,,USD\n"+
				"2025-01-02,Buy,AAPL,10,100,-1000,,USD\n"),
			write(t, dir, "2025.csv", header+
				"2025-01-03,Fee,,0,,-1,,USD\n"),
		},
		MappingFile: write(t, dir, "mapping.json", mappingJSON),
		PricesDir:   prices,
		Provider:    "dir",
		Workers:     2,
	}
}

func TestLoadLedger(t *testing.T) {
	conf := workspace(t, mapping)
	txs, err := loadLedger(conf.LedgerFiles)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for i, tx := range txs {
		assert.Equal(t, i, tx.Seq, "rows are numbered across files")
	}
	assert.Equal(t, conf.LedgerFiles[1], txs[2].Source)

	_, err = loadLedger([]string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.ErrorContains(t, err, "missing.csv")
}

func TestLoadStreams_Unmapped(t *testing.T) {
	conf := workspace(t, `{"Buy": {"action": "trade"}}`)
	_, err := loadStreams(conf)
	assert.ErrorIs(t, err, folio.ErrUnmappedTransactionType)
	assert.ErrorContains(t, err, "folio classify")
}

func TestReport(t *testing.T) {
	conf := workspace(t, mapping)
	on := date.New(2025, 1, 3)
	r, err := report(context.Background(), conf, on)
	require.NoError(t, err)
	assert.Empty(t, r.Failures)

	holdings := r.Snapshot(on)
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.True(t, holdings[0].Quantity.Equal(folio.Q(10)))
	assert.True(t, holdings[0].Value.Equal(folio.M(1100, "USD")))
}

func TestReport_MissingPrices(t *testing.T) {
	conf := workspace(t, mapping)
	conf.PricesDir = t.TempDir()
	r, err := report(context.Background(), conf, date.New(2025, 1, 3))
	require.NoError(t, err, "missing prices do not abort the run")
	_, ok := r.Portfolio.Value.At(date.New(2025, 1, 3))
	assert.False(t, ok, "the value is absent, not zero")
}

func TestAudit(t *testing.T) {
	on := date.New(2025, 1, 3)
	tests := []struct {
		name     string
		mapping  string
		unmapped []string
		ignored  []renderer.IgnoredType
	}{
		{
			name:     "unmapped",
			mapping:  `{"Buy": {"action": "trade"}}`,
			unmapped: []string{"Deposit", "Fee"},
		},
		{
			name:    "ignored",
			mapping: mapping,
			ignored: []renderer.IgnoredType{{Type: "Fee", Count: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := audit(context.Background(), workspace(t, tt.mapping), on)
			require.NoError(t, err)
			var unmapped []string
			for _, u := range a.Unmapped {
				unmapped = append(unmapped, u.Type)
			}
			assert.Equal(t, tt.unmapped, unmapped)
			assert.Equal(t, tt.ignored, a.Ignored)
			assert.False(t, a.Clean())
		})
	}
}

func TestGainsWindow(t *testing.T) {
	tests := []struct {
		name    string
		cmd     gainsCmd
		period  date.Period
		want    date.Range
		wantErr bool
	}{
		{
			name:   "period to date",
			cmd:    gainsCmd{period: "monthly", date: "2025-02-10"},
			period: date.Monthly,
			want:   date.Range{From: date.New(2025, 2, 1), To: date.New(2025, 2, 10)},
		},
		{
			name:   "from",
			cmd:    gainsCmd{period: "year", from: "2024-03-01", date: "2025-02-10"},
			period: date.Yearly,
			want:   date.Range{From: date.New(2024, 3, 1), To: date.New(2025, 2, 10)},
		},
		{name: "from after date", cmd: gainsCmd{period: "monthly", from: "2025-03-01", date: "2025-02-10"}, wantErr: true},
		{name: "bad period", cmd: gainsCmd{period: "decade"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, rg, err := tt.cmd.window()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.period, period)
			assert.Equal(t, tt.want, rg)
		})
	}
}

func TestBenchmarkRequests(t *testing.T) {
	from, to := date.New(2025, 1, 2), date.New(2025, 6, 30)
	rg := date.Range{From: from, To: to}
	ledger := []market.Request{{Symbol: "MC.PA", Currency: "EUR"}, {Currency: "EUR"}}

	got := benchmarkRequests(ledger, "SPY", "USD", "USD", from, to)
	assert.Equal(t, []market.Request{{Symbol: "SPY", Currency: "USD", Range: rg}}, got)

	got = benchmarkRequests(ledger, "SPY", "USD", "EUR", from, to)
	assert.Equal(t, []market.Request{{Symbol: "SPY", Currency: "USD", Range: rg}, {Currency: "USD", Range: rg}}, got)

	got = benchmarkRequests(ledger, "CW8.PA", "EUR", "GBP", from, to)
	assert.Len(t, got, 1, "EUR rates are already requested")
}

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("folio", flag.ContinueOnError)
	conf := &config.Config{}
	conf.SetFlags(global)
	commander := subcommands.NewCommander(global, "folio")
	Register(commander, conf)

	c := Completion(commander, global)
	assert.Contains(t, c.Flags, "ledger")
	assert.Contains(t, c.Flags, "provider")
	for _, name := range []string{"classify", "holdings", "gains", "value", "audit", "benchmark", "topic", "assist"} {
		assert.Contains(t, c.Sub, name)
	}
	assert.Contains(t, c.Sub["gains"].Flags, "period")
	assert.Contains(t, c.Sub["benchmark"].Flags, "mergers")
	assert.NotNil(t, c.Sub["topic"].Args)
	assert.ElementsMatch(t, []string{"daily", "weekly", "monthly", "quarterly", "yearly"}, c.Sub["gains"].Flags["period"].Predict(""))
}
