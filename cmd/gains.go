package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	period string
	from   string
	date   string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized, unrealized and income gains per symbol" }
func (*gainsCmd) Usage() string {
	return `folio gains [-period <period>] [-from <date>] [-d <date>]

  Splits the gains of every symbol into realized, unrealized and income.
  Without -from, reports the period containing -d. With -from, reports every
  period between the two dates.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", date.Monthly.String(), "Period (daily, weekly, monthly, quarterly, yearly)")
	f.StringVar(&c.from, "from", "", "First day of the report (YYYY-MM-DD)")
	f.StringVar(&c.date, "d", "", "Last day of the report (YYYY-MM-DD), today by default.")
}

// window returns the reported range and its periods.
func (c *gainsCmd) window() (date.Period, date.Range, error) {
	period, err := date.ParsePeriod(c.period)
	if err != nil {
		return period, date.Range{}, err
	}
	on, err := parseDay(c.date)
	if err != nil {
		return period, date.Range{}, err
	}
	if c.from == "" {
		rg := period.Range(on)
		rg.To = on
		return period, rg, nil
	}
	from, err := date.Parse(c.from)
	if err != nil {
		return period, date.Range{}, err
	}
	rg := date.Range{From: from, To: on}
	if rg.IsEmpty() {
		return period, rg, fmt.Errorf("-from %v is after -d %v", from, on)
	}
	return period, rg, nil
}

func (c *gainsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, rg, err := c.window()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := report(ctx, settings, rg.To)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuating the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	var records []folio.GainRecord
	for _, chunk := range rg.Split(period) {
		records = append(records, r.GainsOver(chunk)...)
	}
	g := renderer.NewGains(r.Base, period.String(), records)
	printMarkdown(renderer.RenderGains(g))
	return subcommands.ExitSuccess
}
