package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagekit",
		Short: "Serve static or proxied pages with an idempotent UI overlay",
		Long: `pagekit normalizes shared page fragments (footer, home link and
back-to-top button) so exactly one canonical copy survives, persists
checklist progress per page and client, and prints checklists with every
section expanded.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "pagekit.yaml", "config file path")
	root.AddCommand(newServeCmd(), newInjectCmd())
	return root
}
