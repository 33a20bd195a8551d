package cmd

import (
	"flag"

	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var periods = predict.Set{
	date.Daily.String(), date.Weekly.String(), date.Monthly.String(),
	date.Quarterly.String(), date.Yearly.String(),
}

// predictor returns how a flag value is completed.
func predictor(name string) complete.Predictor {
	switch name {
	case "ledger":
		return predict.Files("*.csv")
	case "mapping":
		return predict.Files("*.json")
	case "prices":
		return predict.Dirs("*")
	case "provider":
		return predict.Set(config.Providers)
	case "period":
		return periods
	case "mergers":
		return predict.Set{"include", "exclude"}
	case "v":
		return predict.Nothing
	default:
		return predict.Something
	}
}

func flagsOf(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) { flags[fl.Name] = predictor(fl.Name) })
	return flags
}

// Completion describes the commands registered on c for shell completion.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	cmd := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagsOf(global),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, sub subcommands.Command) {
		f := flag.NewFlagSet(sub.Name(), flag.ContinueOnError)
		sub.SetFlags(f)
		cc := &complete.Command{Flags: flagsOf(f)}
		if sub.Name() == "topic" {
			topics, _ := docs.All()
			cc.Args = predict.Set(topics)
		}
		cmd.Sub[sub.Name()] = cc
	})
	return cmd
}
