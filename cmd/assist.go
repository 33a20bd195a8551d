package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio/agent"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "chat with an assistant about the portfolio" }
func (*assistCmd) Usage() string {
	return `folio assist [<question>]

  Starts an interactive session with a Gemini assistant that reads the
  holdings, gains and audit reports. Needs GEMINI_API_KEY.
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (*assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	a := agent.New(os.Stdout, os.Stdin, agent.NewTrader(), agent.NewAccountant(&reports{conf: settings}))
	if err := a.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// reports renders the reports the accountant asks for.
type reports struct {
	conf *config.Config
}

func (r *reports) Holdings(ctx context.Context, on date.Date) (string, error) {
	rep, err := report(ctx, r.conf, on)
	if err != nil {
		return "", err
	}
	return renderer.RenderHoldings(renderer.NewHoldings(rep, on)), nil
}

func (r *reports) Gains(ctx context.Context, period date.Period, on date.Date) (string, error) {
	rep, err := report(ctx, r.conf, on)
	if err != nil {
		return "", err
	}
	rg := period.Range(on)
	rg.To = on
	return renderer.RenderGains(renderer.NewGains(rep.Base, period.String(), rep.GainsOver(rg))), nil
}

func (r *reports) Audit(ctx context.Context) (string, error) {
	a, err := audit(ctx, r.conf, date.Today())
	if err != nil {
		return "", err
	}
	return renderer.RenderAudit(a), nil
}
