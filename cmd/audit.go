package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

type auditCmd struct {
	date string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "list the ledger rows not applied as is" }
func (*auditCmd) Usage() string {
	return `folio audit [-d <date>]

  Lists unmapped types, ignored rows, ledger splits superseded by the price
  history and symbols that could not be valuated.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Last day of the valuation (YYYY-MM-DD), today by default.")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := audit(ctx, settings, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error auditing the ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAudit(a))
	if !a.Clean() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// audit runs the whole pipeline up to the valuation. Unmapped types stop it
// early since nothing can be normalized.
func audit(ctx context.Context, conf *config.Config, on date.Date) (*renderer.Audit, error) {
	txs, err := loadLedger(conf.LedgerFiles)
	if err != nil {
		return nil, err
	}
	mapping, err := loadMapping(conf.MappingFile)
	if err != nil {
		return nil, err
	}
	if unmapped := mapping.Unmapped(txs); len(unmapped) > 0 {
		return renderer.NewAudit(folio.Audit{}, unmapped, nil), nil
	}
	r, err := report(ctx, conf, on)
	if err != nil {
		return nil, err
	}
	return renderer.NewAudit(r.Audit, nil, r.Failures), nil
}
