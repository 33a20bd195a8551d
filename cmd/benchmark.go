package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// benchmarkCmd holds the flags for the 'benchmark' subcommand.
type benchmarkCmd struct {
	symbol   string
	currency string
	mergers  string
	from     string
	date     string
}

func (*benchmarkCmd) Name() string     { return "benchmark" }
func (*benchmarkCmd) Synopsis() string { return "compare the portfolio with a single security" }
func (*benchmarkCmd) Usage() string {
	return `folio benchmark [-symbol <symbol>] [-c <currency>] [-mergers include|exclude] [-from <date>] [-d <date>]

  Invests every deposit of the ledger in the benchmark symbol, sells it for
  every withdrawal, and compares the outcome with the portfolio gains.
`
}

func (c *benchmarkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", settings.BenchmarkSymbol, "Benchmark symbol")
	f.StringVar(&c.currency, "c", "", "Trading currency of the benchmark, the base currency by default.")
	f.StringVar(&c.mergers, "mergers", settings.MergerPolicy.String(), "Merger proceeds: include them as deposits or exclude them")
	f.StringVar(&c.from, "from", "", "First day of the simulation (YYYY-MM-DD), the first ledger entry by default.")
	f.StringVar(&c.date, "d", "", "Last day of the simulation (YYYY-MM-DD), today by default.")
}

func (c *benchmarkCmd) input() (folio.MergerPolicy, date.Range, error) {
	policy, err := folio.ParseMergerPolicy(c.mergers)
	if err != nil {
		return policy, date.Range{}, err
	}
	if c.symbol == "" {
		return policy, date.Range{}, fmt.Errorf("no benchmark symbol, use -symbol or FOLIO_BENCHMARK")
	}
	var rg date.Range
	if rg.To, err = parseDay(c.date); err != nil {
		return policy, rg, err
	}
	if c.from != "" {
		if rg.From, err = date.Parse(c.from); err != nil {
			return policy, rg, err
		}
	}
	return policy, rg, nil
}

func (c *benchmarkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	policy, rg, err := c.input()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	currency := c.currency
	if currency == "" {
		currency = settings.BaseCurrency
	}

	streams, err := loadStreams(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	window := date.Range{To: rg.To}
	reqs := market.Requests(streams, settings.BaseCurrency, window)
	reqs = append(reqs, benchmarkRequests(reqs, c.symbol, currency, settings.BaseCurrency, streams.Span().From, rg.To)...)
	m, err := fetch(ctx, settings, reqs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching market data: %v\n", err)
		return subcommands.ExitFailure
	}
	history, ok := m.Prices[c.symbol]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no price history for benchmark %s\n", c.symbol)
		return subcommands.ExitFailure
	}

	r, err := valuate(ctx, settings, streams, m, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuating the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	b, err := folio.SimulateBenchmark(folio.BenchmarkInput{
		Streams:         streams,
		Benchmark:       history,
		Rates:           m.Rates,
		Range:           rg,
		Fees:            folio.Fees{Flat: settings.FlatFee, Rate: settings.FeeRate},
		DividendTaxRate: settings.DividendTaxRate,
		Mergers:         policy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error simulating the benchmark: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderBenchmark(renderer.NewComparison(b, r)))
	return subcommands.ExitSuccess
}

// benchmarkRequests adds the benchmark history, and its exchange rate when
// the ledger requests did not already need it.
func benchmarkRequests(reqs []market.Request, symbol, currency, base string, from, to date.Date) []market.Request {
	rg := date.Range{From: from, To: to}
	out := []market.Request{{Symbol: symbol, Currency: currency, Range: rg}}
	if currency == base {
		return out
	}
	for _, r := range reqs {
		if r.Symbol == "" && r.Currency == currency {
			return out
		}
	}
	return append(out, market.Request{Currency: currency, Range: rg})
}
