package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hcostelha/scribe/internal/classify"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed tool event store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert appends a new pending event. The operation and file path are
// fixed at insert time; file_path is persisted only for file
// operations.
func (s *SQLiteStore) Insert(ctx context.Context, ev *Event) error {
	var (
		opType   any
		filePath any
	)
	if ev.Operation != classify.OpUnknown {
		opType = string(ev.Operation)
	}
	if ev.Operation.IsFileOperation() && ev.FilePath != "" {
		filePath = ev.FilePath
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_events
		   (session_id, id, tool_name, status, error_message, input,
		    started_at, ended_at, operation_type, file_path)
		 VALUES (?, ?, ?, ?, NULL, ?, ?, NULL, ?, ?)`,
		ev.SessionID, ev.ID, ev.ToolName, string(StatusPending), ev.Input,
		ev.StartedAt.UnixMilli(), opType, filePath,
	)
	if err != nil {
		return fmt.Errorf("inserting tool event: %w", err)
	}
	return nil
}

// Complete finalizes a pending event. The ended_at guard makes the
// call idempotent: a second completion for the same event is a no-op.
func (s *SQLiteStore) Complete(ctx context.Context, sessionID, id string, status Status, errorMessage string) error {
	var errMsg any
	if errorMessage != "" {
		errMsg = errorMessage
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE tool_events
		 SET status = ?, error_message = ?, ended_at = ?
		 WHERE session_id = ? AND id = ? AND ended_at IS NULL`,
		string(status), errMsg, time.Now().UnixMilli(), sessionID, id,
	)
	if err != nil {
		return fmt.Errorf("completing tool event: %w", err)
	}
	return nil
}

// Get retrieves a single event.
func (s *SQLiteStore) Get(ctx context.Context, sessionID, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, id, tool_name, status, error_message, input,
		        started_at, ended_at, operation_type, file_path
		 FROM tool_events WHERE session_id = ? AND id = ?`,
		sessionID, id)

	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting tool event: %w", err)
	}
	return ev, nil
}

// ListBySession returns all events for a session in insertion order.
// Rows written before operation columns existed come back with
// OpUnknown and no file path.
func (s *SQLiteStore) ListBySession(ctx context.Context, sessionID string) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, id, tool_name, status, error_message, input,
		        started_at, ended_at, operation_type, file_path
		 FROM tool_events WHERE session_id = ? ORDER BY started_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing tool events: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Close error on read path is ignorable

	var events []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tool event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool events: %w", err)
	}

	return events, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (*Event, error) {
	var (
		ev               Event
		status           string
		errMsg, input    sql.NullString
		opType, filePath sql.NullString
		startedAt        int64
		endedAt          sql.NullInt64
	)
	err := sc.Scan(&ev.SessionID, &ev.ID, &ev.ToolName, &status, &errMsg,
		&input, &startedAt, &endedAt, &opType, &filePath)
	if err != nil {
		return nil, err
	}

	ev.Status = Status(status)
	ev.ErrorMessage = errMsg.String
	ev.Input = input.String
	ev.StartedAt = time.UnixMilli(startedAt)
	if endedAt.Valid {
		ev.EndedAt = time.UnixMilli(endedAt.Int64)
	}
	ev.Operation = classify.ParseOperation(opType.String)
	if ev.Operation.IsFileOperation() {
		ev.FilePath = filePath.String
	}
	return &ev, nil
}
