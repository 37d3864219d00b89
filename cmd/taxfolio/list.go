package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/internal/report"
	"github.com/ledgerloom/taxfolio/internal/tax/method"
)

func newMethodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the available accounting methods",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range method.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newGeneratorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generators",
		Short: "List the available report generators",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range report.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newCountriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the available country plugins",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, code := range country.Codes() {
				c, err := country.Lookup(code)
				if err != nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", code, c.CurrencyCode())
			}
		},
	}
}
