package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() { _ = godotenv.Load() }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spotctl",
		Short: "Inspect the metal spot price pipeline",
		Long: `spotctl runs the same fetch path as the API against the configured
upstream, without a server or snapshot store. Settings come from the
environment (and .env) the same way the API reads them.`,
		SilenceUsage: true,
	}
	root.AddCommand(newFetchCmd(), newSymbolsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
