package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/version"
)

// Version returns the current version
func Version() string {
	return version.Get()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tracker version %s\n", Version())
		},
	}
}
