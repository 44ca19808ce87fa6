// Package session provides session management with persistence.
package session

import (
	"context"
	"time"
)

// Session represents one bounded run of the agent. It scopes all
// file-tracking state and tool events.
type Session struct {
	ID         string
	Title      string
	WorkingDir string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store defines the interface for session persistence.
type Store interface {
	// Create creates a new session.
	Create(ctx context.Context, id, title, workingDir string) (*Session, error)

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// List returns all sessions ordered by updated_at descending.
	List(ctx context.Context) ([]*Session, error)

	// UpdateTitle updates the title of a session.
	UpdateTitle(ctx context.Context, id, title string) error

	// Touch bumps the session's updated_at timestamp.
	Touch(ctx context.Context, id string) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error
}
