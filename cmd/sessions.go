package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hcostelha/scribe/internal/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		RunE:  runSessionsList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its tool events",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	})

	return cmd
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	database, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // Close error on exit path is ignorable

	store := session.NewSQLiteStore(database.Conn())
	sessions, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %s\n", "ID", "UPDATED", "TITLE")
	fmt.Println(strings.Repeat("─", 80))
	for _, sess := range sessions {
		title := sess.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-36s  %-19s  %s\n",
			sess.ID, sess.UpdatedAt.Format(time.DateTime), title)
	}

	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // Close error on exit path is ignorable

	store := session.NewSQLiteStore(database.Conn())
	if _, err := store.Get(cmd.Context(), args[0]); err != nil {
		return err
	}
	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
