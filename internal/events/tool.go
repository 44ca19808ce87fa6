package events

import (
	"time"

	"github.com/hcostelha/scribe/internal/classify"
)

// ToolEventType represents tool-specific event types.
type ToolEventType string

// Tool event type constants.
const (
	ToolEventStarted   ToolEventType = "started"
	ToolEventCompleted ToolEventType = "completed"
	ToolEventFailed    ToolEventType = "failed"
)

// ToolEvent represents a tool execution event carrying the resolved
// operation classification.
type ToolEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	EventID   string
	ToolName  string
	Type      ToolEventType
	Operation classify.Operation
	FilePath  string
	Timestamp time.Time

	// Optional fields
	Input    string        // For Started
	Error    error         // For Failed
	Duration time.Duration // For Completed/Failed
}

// NewToolStartedEvent creates a tool started event.
func NewToolStartedEvent(sessionID, eventID, toolName string, op classify.Operation, filePath, input string) ToolEvent {
	return ToolEvent{
		SessionID: sessionID,
		EventID:   eventID,
		ToolName:  toolName,
		Type:      ToolEventStarted,
		Operation: op,
		FilePath:  filePath,
		Input:     input,
		Timestamp: time.Now(),
	}
}

// NewToolCompletedEvent creates a tool completed event.
func NewToolCompletedEvent(sessionID, eventID, toolName string, op classify.Operation, filePath string, duration time.Duration) ToolEvent {
	return ToolEvent{
		SessionID: sessionID,
		EventID:   eventID,
		ToolName:  toolName,
		Type:      ToolEventCompleted,
		Operation: op,
		FilePath:  filePath,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// NewToolFailedEvent creates a tool failed event.
func NewToolFailedEvent(sessionID, eventID, toolName string, op classify.Operation, filePath string, err error, duration time.Duration) ToolEvent {
	return ToolEvent{
		SessionID: sessionID,
		EventID:   eventID,
		ToolName:  toolName,
		Type:      ToolEventFailed,
		Operation: op,
		FilePath:  filePath,
		Error:     err,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}
