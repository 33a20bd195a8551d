// Package cmd implements the folio command line application.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/logger"
	"github.com/etnz/folio/market"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use a global variable for the settings.
var settings = &config.Config{}

// Register the subcommands. A main package calls Register, then Execute on
// the user-selected one. conf is read when the command executes, after the
// flags are parsed.
func Register(c *subcommands.Commander, conf *config.Config) {
	settings = conf

	c.Register(&classifyCmd{}, "ledger")
	c.Register(&auditCmd{}, "ledger")

	c.Register(&holdingsCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")
	c.Register(&valueCmd{}, "reports")
	c.Register(&benchmarkCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
	c.Register(&assistCmd{}, "help")
}

// loadLedger decodes the ledger files in order, numbering rows across files.
func loadLedger(files []string) ([]folio.Transaction, error) {
	var all []folio.Transaction
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("could not open ledger file %q: %w", name, err)
		}
		txs, err := folio.DecodeLedger(f, name, len(all))
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, txs...)
	}
	return all, nil
}

func loadMapping(name string) (folio.Mapping, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open mapping file %q: %w", name, err)
	}
	defer f.Close()
	return folio.DecodeMapping(f)
}

// loadStreams reads, classifies and normalizes the ledger.
func loadStreams(conf *config.Config) (*folio.Streams, error) {
	txs, err := loadLedger(conf.LedgerFiles)
	if err != nil {
		return nil, err
	}
	mapping, err := loadMapping(conf.MappingFile)
	if err != nil {
		return nil, err
	}
	rows, err := folio.Classify(mapping, txs)
	if err != nil {
		return nil, fmt.Errorf("%w, run 'folio classify' to list the missing types", err)
	}
	return folio.Normalize(rows)
}

// newProvider returns the configured market data provider.
func newProvider(conf *config.Config, log zerolog.Logger) market.Provider {
	if conf.Provider == "dir" {
		return market.Dir(conf.PricesDir)
	}
	cacheDir := conf.CacheDir
	if cacheDir == "" {
		cacheDir = market.DefaultCacheDir()
	}
	client := market.NewClient(market.ClientOptions{CacheDir: cacheDir, RequestsPerSecond: 5, Logger: log})
	var p market.Provider
	switch conf.Provider {
	case "eodhd":
		p = market.NewEODHD(conf.EODHDAPIKey, client)
	default:
		p = market.NewYahoo(client)
	}
	return market.NewMemo(p, time.Hour)
}

// fetch gets the market data of reqs. Missing data is logged, the valuation
// reports the symbols it affects.
func fetch(ctx context.Context, conf *config.Config, reqs []market.Request) (*market.Market, error) {
	log := logger.FromContext(ctx)
	m, err := market.Fetch(ctx, newProvider(conf, log), conf.BaseCurrency, reqs, conf.Workers, log)
	if m == nil {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("some market data is missing")
	}
	return m, nil
}

func valuate(ctx context.Context, conf *config.Config, streams *folio.Streams, m *market.Market, rg date.Range) (*folio.Report, error) {
	return folio.Valuate(ctx, folio.Input{
		Streams: streams,
		Prices:  m.Prices,
		Rates:   m.Rates,
		Range:   rg,
		Options: folio.Options{Workers: conf.Workers, Logger: logger.FromContext(ctx)},
	})
}

// report valuates the ledger from its first entry to the end of the day on.
func report(ctx context.Context, conf *config.Config, on date.Date) (*folio.Report, error) {
	streams, err := loadStreams(conf)
	if err != nil {
		return nil, err
	}
	rg := date.Range{To: on}
	m, err := fetch(ctx, conf, market.Requests(streams, conf.BaseCurrency, rg))
	if err != nil {
		return nil, err
	}
	return valuate(ctx, conf, streams, m, rg)
}

// parseDay parses a date flag, empty meaning today.
func parseDay(s string) (date.Date, error) {
	if s == "" {
		return date.Today(), nil
	}
	return date.Parse(s)
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
