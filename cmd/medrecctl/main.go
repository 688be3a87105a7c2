package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "medrecctl",
		Short: "Operational tooling for the clinsync record platform",
		Long: `medrecctl runs the operational procedures that keep the identity and
profile collections consistent: the legacy-profile backfill and the
read-only consistency check. Configuration comes from CLINSYNC_*
environment variables; CLINSYNC_STORE_DSN is required.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newValidateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
