package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VantageDataChat/LyricDeck"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Printing the version must not depend on a readable config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lyricdeck %s\n", lyricdeck.Version)
		},
	}
}
