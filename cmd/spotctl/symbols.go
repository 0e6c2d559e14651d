package main

import (
	"fmt"
	"text/tabwriter"

	"metalspot-service/internal/config"

	"github.com/spf13/cobra"
)

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List tracked symbols and their upstream tickers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, _ := cmd.Flags().GetString("symbols")
			if spec == "" {
				spec = config.Load().Symbols
			}
			tracked, err := config.ParseSymbols(spec)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tTICKER")
			for _, t := range tracked {
				fmt.Fprintf(w, "%s\t%s\n", t.Symbol, t.Ticker)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("symbols", "", "Override SYMBOLS")
	return cmd
}
