package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

type classifyCmd struct{}

func (*classifyCmd) Name() string     { return "classify" }
func (*classifyCmd) Synopsis() string { return "check that every ledger type is mapped" }
func (*classifyCmd) Usage() string {
	return `folio classify

  Lists the transaction types of the ledger missing from the mapping, with the
  date they first appear. Exits with an error if there is any.
`
}

func (*classifyCmd) SetFlags(*flag.FlagSet) {}

func (*classifyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := loadLedger(settings.LedgerFiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	mapping, err := loadMapping(settings.MappingFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading mapping: %v\n", err)
		return subcommands.ExitFailure
	}
	unmapped := mapping.Unmapped(txs)
	if len(unmapped) == 0 {
		fmt.Printf("All %d ledger rows are mapped.\n", len(txs))
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderAudit(renderer.NewAudit(folio.Audit{}, unmapped, nil)))
	return subcommands.ExitFailure
}
