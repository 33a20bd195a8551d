package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/google/subcommands"
)

// valueCmd holds the flags for the 'value' subcommand.
type valueCmd struct {
	from string
	date string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "daily portfolio value as JSON lines" }
func (*valueCmd) Usage() string {
	return `folio value [-from <date>] [-d <date>]

  Prints one JSON object per day with the portfolio value, realized and
  unrealized gains, income and net deposits in base currency. Absent values
  are omitted.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day printed (YYYY-MM-DD), the first ledger entry by default.")
	f.StringVar(&c.date, "d", "", "Last day printed (YYYY-MM-DD), today by default.")
}

func (c *valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var from date.Date
	if c.from != "" {
		if from, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	r, err := report(ctx, settings, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuating the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := folio.EncodeDaily(os.Stdout, r.Portfolio, from); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing the series: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
