// Package config loads the folio settings from the environment, an optional
// .env file and command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/etnz/folio"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every setting of a folio run.
type Config struct {
	BaseCurrency    string
	LedgerFiles     []string
	MappingFile     string
	PricesDir       string
	Provider        string // dir, eodhd or yahoo
	EODHDAPIKey     string
	CacheDir        string
	Workers         int
	MergerPolicy    folio.MergerPolicy
	FlatFee         decimal.Decimal
	FeeRate         decimal.Decimal
	DividendTaxRate decimal.Decimal
	BenchmarkSymbol string
	Verbose         bool
}

// Providers are the accepted Provider values.
var Providers = []string{"dir", "eodhd", "yahoo"}

// Load reads .env, if present, then the FOLIO_* environment variables.
// Variables already set in the process are not overridden by .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup, defaults filling the gaps.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	c := &Config{
		BaseCurrency:    strings.ToUpper(get("FOLIO_BASE_CURRENCY", "EUR")),
		LedgerFiles:     splitList(get("FOLIO_LEDGER", "ledger.csv")),
		MappingFile:     get("FOLIO_MAPPING", "mapping.json"),
		PricesDir:       get("FOLIO_PRICES", "prices"),
		Provider:        get("FOLIO_PROVIDER", "dir"),
		EODHDAPIKey:     get("FOLIO_EODHD_API_KEY", ""),
		CacheDir:        get("FOLIO_CACHE_DIR", ""),
		BenchmarkSymbol: get("FOLIO_BENCHMARK", ""),
		Workers:         runtime.NumCPU(),
	}

	var err error
	if v := get("FOLIO_WORKERS", ""); v != "" {
		if c.Workers, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid FOLIO_WORKERS %q: %w", v, err)
		}
	}
	if v := get("FOLIO_VERBOSE", ""); v != "" {
		if c.Verbose, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid FOLIO_VERBOSE %q: %w", v, err)
		}
	}
	if c.MergerPolicy, err = folio.ParseMergerPolicy(get("FOLIO_MERGERS", "")); err != nil {
		return nil, fmt.Errorf("invalid FOLIO_MERGERS: %w", err)
	}
	for _, d := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"FOLIO_FLAT_FEE", &c.FlatFee},
		{"FOLIO_FEE_RATE", &c.FeeRate},
		{"FOLIO_DIVIDEND_TAX", &c.DividendTaxRate},
	} {
		v := get(d.key, "0")
		if *d.dst, err = decimal.NewFromString(v); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
	}
	return c, c.Validate()
}

// Validate checks the values that flags may have changed.
func (c *Config) Validate() error {
	if !folio.ValidCurrency(c.BaseCurrency) {
		return fmt.Errorf("invalid base currency %q", c.BaseCurrency)
	}
	if len(c.LedgerFiles) == 0 {
		return errors.New("no ledger file")
	}
	switch c.Provider {
	case "dir", "eodhd", "yahoo":
	default:
		return fmt.Errorf("unknown provider %q want one of %v", c.Provider, Providers)
	}
	if c.Provider == "eodhd" && c.EODHDAPIKey == "" {
		return errors.New("the eodhd provider needs FOLIO_EODHD_API_KEY")
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid number of workers %d", c.Workers)
	}
	if c.DividendTaxRate.IsNegative() || c.DividendTaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("dividend tax rate %v is not within [0, 1]", c.DividendTaxRate)
	}
	if c.FlatFee.IsNegative() || c.FeeRate.IsNegative() {
		return errors.New("fees cannot be negative")
	}
	return nil
}

// SetFlags registers the global flags on f, defaulting to the current values.
// Flags are applied when f is parsed; call Validate afterwards.
func (c *Config) SetFlags(f *flag.FlagSet) {
	f.Func("ledger", fmt.Sprintf("comma separated ledger CSV files, read in order (default %q)", strings.Join(c.LedgerFiles, ",")), func(s string) error {
		c.LedgerFiles = splitList(s)
		return nil
	})
	f.StringVar(&c.MappingFile, "mapping", c.MappingFile, "transaction type mapping JSON file")
	f.StringVar(&c.PricesDir, "prices", c.PricesDir, "folder of price and rate CSV files for the dir provider")
	f.StringVar(&c.BaseCurrency, "base", c.BaseCurrency, "base currency of every report")
	f.StringVar(&c.Provider, "provider", c.Provider, "market data provider: dir, eodhd or yahoo")
	f.IntVar(&c.Workers, "workers", c.Workers, "symbols processed in parallel")
	f.BoolVar(&c.Verbose, "v", c.Verbose, "verbose logging")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
