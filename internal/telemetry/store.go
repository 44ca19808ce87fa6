package telemetry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a tool event is not found.
var ErrNotFound = errors.New("tool event not found")

// Store defines the interface for tool event persistence.
type Store interface {
	// Insert appends a new pending event.
	Insert(ctx context.Context, ev *Event) error

	// Complete finalizes a pending event with its outcome. Events that
	// already ended are left untouched.
	Complete(ctx context.Context, sessionID, id string, status Status, errorMessage string) error

	// Get retrieves a single event.
	Get(ctx context.Context, sessionID, id string) (*Event, error)

	// ListBySession returns all events for a session in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]*Event, error)
}
