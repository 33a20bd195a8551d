package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	date string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the holdings on a day" }
func (*holdingsCmd) Usage() string {
	return `folio holdings [-d <date>]

  Displays the quantity, price, cost and value of every symbol held at the end
  of a day, in base currency.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the holdings (YYYY-MM-DD), today by default.")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := report(ctx, settings, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuating the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderHoldings(renderer.NewHoldings(r, on)))
	return subcommands.ExitSuccess
}
