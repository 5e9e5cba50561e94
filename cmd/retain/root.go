package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "retain",
		Short: "Customer renewal management service and terminal client",
		Long: `retain tracks customer accounts through their renewal cycle.

The server (retain serve) exposes a JSON API over SQLite. The terminal
client (retain tui) connects to a running server. Exports can be rendered
straight from the database with retain export, no server required.

Configuration is read from retain.toml (or RETAIN_CONFIG) and overridden
by RETAIN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newExportCmd(),
		newTUICmd(),
	)
	return root
}
