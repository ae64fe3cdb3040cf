package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "editctl",
		Short: "Inspect and resolve timeline edit histories",
		Long: `editctl reads a persisted trim/splice edit history (JSON, or YAML by file extension)
and prints the keep-segments it resolves to, as JSON, YAML or a CMX3600-style EDL.
It can also print the ruler ticks a player would show for the history's visible window.`,
		SilenceUsage: true,
	}
	root.AddCommand(newResolveCmd())
	root.AddCommand(newRulerCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
