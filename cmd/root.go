// Package cmd provides the CLI commands for scribe.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/hcostelha/scribe/internal/db"
	"github.com/hcostelha/scribe/internal/debug"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scribe",
		Short: "AI coding assistant with a durable tool event log",
		Long: `Scribe is an AI-powered coding assistant that records every tool
invocation it makes - reads, writes, edits, deletes, shell commands -
into a durable per-session event log, and reports usage statistics
over it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debugMode, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("getting debug flag: %w", err)
			}
			if debugMode {
				logPath := filepath.Join(xdg.DataHome, "scribe", "debug.log")
				if debugErr := debug.Enable(logPath); debugErr != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to enable debug logging: %v\n", debugErr)
				} else {
					fmt.Fprintf(os.Stderr, "Debug: %s\n", logPath)
				}
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			debug.Disable()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging to ~/.local/share/scribe/debug.log")
	cmd.PersistentFlags().String("db", "", "Path to the scribe database (defaults to ~/.local/share/scribe/scribe.db)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// openDatabase opens the scribe database, honoring the --db override.
func openDatabase(cmd *cobra.Command) (*db.DB, error) {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, fmt.Errorf("getting db flag: %w", err)
	}
	if dbPath == "" {
		dbPath = filepath.Join(xdg.DataHome, "scribe", "scribe.db")
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
