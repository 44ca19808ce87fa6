package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the scribe version, overridden at build time via ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scribe version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scribe %s\n", Version)
		},
	}
}
