package telemetry

import (
	"time"

	"github.com/hcostelha/scribe/internal/classify"
)

// ToolStats summarizes one session's tool usage.
//
// CallsByOperation always has an entry for every operation category,
// zero-valued when unused, so display code never key-checks.
// LegacyCalls counts events recorded before operation tracking
// existed; their categories in CallsByOperation come from the
// name-based heuristic and are best-effort.
type ToolStats struct { //nolint:govet // fieldalignment: preserving logical field order
	TotalCalls       int
	SuccessfulCalls  int
	FailedCalls      int
	CallsByTool      map[string]int
	CallsByOperation map[classify.Operation]int
	LegacyCalls      int
	FileOperations   []FileOperation
	AvgDuration      time.Duration // mean wall time of completed calls
}

// FileOperation is one recorded file-affecting call, in event order.
type FileOperation struct {
	Path      string
	Operation classify.Operation
	Succeeded bool
}

// operationCategories is the fixed key set of CallsByOperation.
var operationCategories = []classify.Operation{
	classify.OpCreate,
	classify.OpModify,
	classify.OpDelete,
	classify.OpRead,
	classify.OpOther,
	classify.OpUnknown,
}

// ComputeStats aggregates a session's events. It is pure: callers feed
// it whatever event slice they assembled, and feeding it the same
// slice twice yields the same result.
//
// Events carrying a recorded operation are counted under it directly.
// Legacy events (OpUnknown) are counted under the heuristic category
// for their tool name instead, so old sessions still produce a usable
// breakdown; they are additionally tallied in LegacyCalls so report
// readers can judge how much of the breakdown is inferred.
func ComputeStats(events []*Event) ToolStats {
	stats := ToolStats{
		CallsByTool:      make(map[string]int),
		CallsByOperation: make(map[classify.Operation]int, len(operationCategories)),
	}
	for _, op := range operationCategories {
		stats.CallsByOperation[op] = 0
	}

	var totalDuration time.Duration
	var completedCalls int

	for _, ev := range events {
		stats.TotalCalls++
		stats.CallsByTool[ev.ToolName]++

		switch ev.Status {
		case StatusOK:
			stats.SuccessfulCalls++
		case StatusFailed:
			stats.FailedCalls++
		}
		if !ev.EndedAt.IsZero() {
			totalDuration += ev.Duration()
			completedCalls++
		}

		op := ev.Operation
		if op == classify.OpUnknown {
			stats.LegacyCalls++
			op = classify.Heuristic(ev.ToolName)
		}
		stats.CallsByOperation[op]++

		if ev.FilePath != "" && op.IsFileOperation() {
			stats.FileOperations = append(stats.FileOperations, FileOperation{
				Path:      ev.FilePath,
				Operation: op,
				Succeeded: ev.Succeeded(),
			})
		}
	}

	if completedCalls > 0 {
		stats.AvgDuration = totalDuration / time.Duration(completedCalls)
	}

	return stats
}
