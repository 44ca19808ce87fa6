// Package telemetry records tool invocations durably and aggregates
// them into per-session usage statistics.
package telemetry

import (
	"time"

	"github.com/hcostelha/scribe/internal/classify"
)

// Status represents the lifecycle state of a recorded tool invocation.
type Status string

// Status constants.
const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Event is one recorded tool invocation. FilePath is populated only
// for file operations (create, modify, delete).
type Event struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID    string
	ID           string
	ToolName     string
	Operation    classify.Operation
	FilePath     string
	Status       Status
	ErrorMessage string
	Input        string
	StartedAt    time.Time
	EndedAt      time.Time // zero until the invocation completes
}

// Succeeded reports whether the event completed without error.
func (e *Event) Succeeded() bool {
	return e.Status == StatusOK
}

// Duration returns the wall time between start and end, or zero for
// events that have not completed.
func (e *Event) Duration() time.Duration {
	if e.EndedAt.IsZero() {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}
