// Command taxfolio computes capital gains/losses and account balances for a
// portfolio of cryptocurrency transactions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "taxfolio",
		Short: "Crypto capital-gains tax calculator",
		Long: `taxfolio ingests a transaction workbook, pairs each taxable disposal
with prior acquisition lots under a pluggable accounting method
(fifo, lifo, hifo, lofo), and writes per-year gain/loss and balance reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newComputeCommand())
	root.AddCommand(newMethodsCommand())
	root.AddCommand(newGeneratorsCommand())
	root.AddCommand(newCountriesCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
