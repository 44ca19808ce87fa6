package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hcostelha/scribe/internal/classify"
	"github.com/hcostelha/scribe/internal/session"
	"github.com/hcostelha/scribe/internal/telemetry"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <session-id>",
		Short: "Show tool usage statistics for a session",
		Long: `Aggregate a session's recorded tool events into usage statistics:
call counts per tool, per operation category, and success rates.

Sessions recorded before operation tracking existed are reported using
a name-based heuristic; the legacy line shows how many calls that
covers.`,
		Args: cobra.ExactArgs(1),
		RunE: runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessionID := args[0]

	database, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close() //nolint:errcheck // Close error on exit path is ignorable

	sessionStore := session.NewSQLiteStore(database.Conn())
	sess, err := sessionStore.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	eventStore := telemetry.NewSQLiteStore(database.Conn())
	evs, err := eventStore.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	stats := telemetry.ComputeStats(evs)

	fmt.Printf("Tool usage for session %s\n", sess.ID)
	if sess.Title != "" {
		fmt.Printf("  %s\n", sess.Title)
	}
	fmt.Println(strings.Repeat("─", 50))
	fmt.Println()

	fmt.Printf("Total calls:      %d\n", stats.TotalCalls)
	fmt.Printf("Successful:       %d\n", stats.SuccessfulCalls)
	fmt.Printf("Failed:           %d\n", stats.FailedCalls)
	if pending := stats.TotalCalls - stats.SuccessfulCalls - stats.FailedCalls; pending > 0 {
		fmt.Printf("Never completed:  %d\n", pending)
	}
	if stats.AvgDuration > 0 {
		fmt.Printf("Avg duration:     %s\n", stats.AvgDuration.Round(time.Millisecond))
	}
	fmt.Println()

	if len(stats.CallsByTool) > 0 {
		fmt.Println("By tool:")
		names := make([]string, 0, len(stats.CallsByTool))
		for name := range stats.CallsByTool {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if stats.CallsByTool[names[i]] != stats.CallsByTool[names[j]] {
				return stats.CallsByTool[names[i]] > stats.CallsByTool[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Printf("  %-12s %d\n", name, stats.CallsByTool[name])
		}
		fmt.Println()
	}

	fmt.Println("By operation:")
	for _, op := range []classify.Operation{
		classify.OpCreate, classify.OpModify, classify.OpDelete,
		classify.OpRead, classify.OpOther, classify.OpUnknown,
	} {
		if count := stats.CallsByOperation[op]; count > 0 {
			fmt.Printf("  %-12s %d\n", op, count)
		}
	}

	if len(stats.FileOperations) > 0 {
		fmt.Println()
		fmt.Println("Files:")
		for _, fo := range stats.FileOperations {
			marker := " "
			if !fo.Succeeded {
				marker = "!"
			}
			fmt.Printf("  %s %-8s %s\n", marker, fo.Operation, fo.Path)
		}
	}

	if stats.LegacyCalls > 0 {
		fmt.Println()
		fmt.Printf("%d of %d calls predate operation tracking; their categories are inferred from tool names.\n",
			stats.LegacyCalls, stats.TotalCalls)
	}

	return nil
}
