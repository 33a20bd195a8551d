// Command folio reports on a portfolio ledger: holdings, gains, daily value,
// audit and benchmark comparison.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/etnz/folio/cmd"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/logger"
	"github.com/google/subcommands"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	conf.SetFlags(flag.CommandLine)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander, conf)

	// exits when invoked by the shell for completion
	cmd.Completion(commander, flag.CommandLine).Complete("folio")

	flag.Parse()
	if err := conf.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	log := logger.New(conf.Verbose)
	ctx := logger.WithContext(context.Background(), log)
	os.Exit(int(commander.Execute(ctx)))
}
