package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hcostelha/scribe/internal/classify"
	"github.com/hcostelha/scribe/internal/debug"
	"github.com/hcostelha/scribe/internal/events"
	"github.com/hcostelha/scribe/internal/pubsub"
	"github.com/hcostelha/scribe/internal/tracking"
)

// bulkyInputFields are replaced with a placeholder before an input
// payload is persisted. The event log records what was called, not
// entire file contents.
var bulkyInputFields = []string{"content", "old_string", "new_string"}

const redactedPlaceholder = "[redacted]"

// Recorder observes tool invocations and writes them to the event log.
//
// Recording is strictly best-effort: a storage failure is logged and
// the event is kept in memory for the life of the session, but the
// tool call itself always proceeds. Begin therefore returns no error.
type Recorder struct {
	store   Store
	tracker *tracking.Tracker
	hub     *pubsub.Hub

	mu       sync.Mutex
	pending  map[string]*Event // in-flight events, keyed by sessionID/eventID
	degraded map[string]*Event // events the store refused, kept in memory
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store Store, tracker *tracking.Tracker, hub *pubsub.Hub) *Recorder {
	return &Recorder{
		store:    store,
		tracker:  tracker,
		hub:      hub,
		pending:  make(map[string]*Event),
		degraded: make(map[string]*Event),
	}
}

// Begin records the start of a tool invocation and returns its event ID.
// Classification happens here, before the tool runs, because an
// ambiguous write can only be disambiguated while the target's
// pre-call state is still observable.
func (r *Recorder) Begin(ctx context.Context, sessionID, toolName string, input []byte) string {
	cls := classify.Classify(toolName, input)

	op := cls.Op
	if cls.Ambiguous && cls.Path != "" {
		op = r.tracker.Resolve(sessionID, cls.Path)
	}

	ev := &Event{
		SessionID: sessionID,
		ID:        uuid.NewString(),
		ToolName:  toolName,
		Operation: op,
		Status:    StatusPending,
		Input:     string(redactInput(input)),
		StartedAt: time.Now(),
	}
	if op.IsFileOperation() {
		ev.FilePath = cls.Path
	}

	k := key(sessionID, ev.ID)
	r.mu.Lock()
	r.pending[k] = ev
	r.mu.Unlock()

	if err := r.store.Insert(ctx, ev); err != nil {
		debug.Error("telemetry", err, "inserting tool event, keeping in memory")
		r.mu.Lock()
		r.degraded[k] = ev
		r.mu.Unlock()
	}

	if r.hub != nil {
		r.hub.Tool.Publish(pubsub.EventStarted,
			events.NewToolStartedEvent(sessionID, ev.ID, toolName, op, ev.FilePath, ev.Input))
	}

	return ev.ID
}

// Complete finalizes a previously begun invocation. A failed create
// releases its path reservation so a retry can still count as the
// session's create. Completing an unknown or already-completed event
// is a no-op.
func (r *Recorder) Complete(ctx context.Context, sessionID, eventID string, success bool, errorMessage string) {
	k := key(sessionID, eventID)
	status := StatusOK
	if !success {
		status = StatusFailed
	}

	// Mutation happens under the lock: a degraded event shares its
	// pointer with the degraded map, and Events may be reading it.
	r.mu.Lock()
	ev, ok := r.pending[k]
	if ok {
		delete(r.pending, k)
	}
	_, inMemory := r.degraded[k]
	if ev != nil {
		ev.Status = status
		ev.ErrorMessage = errorMessage
		ev.EndedAt = time.Now()
	}
	r.mu.Unlock()

	if ev != nil && !success && ev.Operation == classify.OpCreate && ev.FilePath != "" {
		r.tracker.Release(sessionID, ev.FilePath)
	}

	if !inMemory {
		if err := r.store.Complete(ctx, sessionID, eventID, status, errorMessage); err != nil {
			debug.Error("telemetry", err, "completing tool event, keeping in memory")
			if ev != nil {
				r.mu.Lock()
				r.degraded[k] = ev
				r.mu.Unlock()
			}
		}
	}

	if r.hub != nil && ev != nil {
		if success {
			r.hub.Tool.Publish(pubsub.EventCompleted,
				events.NewToolCompletedEvent(sessionID, eventID, ev.ToolName, ev.Operation, ev.FilePath, ev.Duration()))
		} else {
			r.hub.Tool.Publish(pubsub.EventFailed,
				events.NewToolFailedEvent(sessionID, eventID, ev.ToolName, ev.Operation, ev.FilePath, nil, ev.Duration()))
		}
	}
}

// FileCreated marks a path as created by the session outside the
// resolve path, for tools that create files as a side effect.
func (r *Recorder) FileCreated(sessionID, path string) {
	r.tracker.MarkCreated(sessionID, path)
}

// HasFileBeenCreated reports whether the session created the given
// path, for collaborators needing session-scoped file provenance.
func (r *Recorder) HasFileBeenCreated(sessionID, path string) bool {
	return r.tracker.HasBeenCreated(sessionID, path)
}

// RestoreSession rebuilds file-tracking state for a resumed session by
// replaying its successful create events.
func (r *Recorder) RestoreSession(ctx context.Context, sessionID string) error {
	evs, err := r.store.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	var paths []string
	for _, ev := range evs {
		if ev.Operation == classify.OpCreate && ev.Succeeded() && ev.FilePath != "" {
			paths = append(paths, ev.FilePath)
		}
	}
	r.tracker.Seed(sessionID, paths)
	return nil
}

// EndSession discards all in-memory state for a session. Durable
// records are unaffected.
func (r *Recorder) EndSession(sessionID string) {
	r.tracker.EndSession(sessionID)

	prefix := sessionID + "/"
	r.mu.Lock()
	for k := range r.pending {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(r.pending, k)
		}
	}
	for k := range r.degraded {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(r.degraded, k)
		}
	}
	r.mu.Unlock()
}

// Events returns the session's recorded events, merging durable rows
// with any events held in memory after storage failures. A memory copy
// supersedes a durable row with the same ID: after a failed Complete
// the store still holds the stale pending row, and reporting both
// would count one invocation twice.
func (r *Recorder) Events(ctx context.Context, sessionID string) ([]*Event, error) {
	evs, err := r.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Snapshot copies so callers never share the pointers Complete
	// mutates.
	var inMemory []*Event
	r.mu.Lock()
	for _, ev := range r.degraded {
		if ev.SessionID == sessionID {
			c := *ev
			inMemory = append(inMemory, &c)
		}
	}
	r.mu.Unlock()

	if len(inMemory) > 0 {
		superseded := make(map[string]struct{}, len(inMemory))
		for _, ev := range inMemory {
			superseded[ev.ID] = struct{}{}
		}
		kept := evs[:0]
		for _, ev := range evs {
			if _, ok := superseded[ev.ID]; !ok {
				kept = append(kept, ev)
			}
		}
		evs = append(kept, inMemory...)
	}

	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].StartedAt.Before(evs[j].StartedAt)
	})
	return evs, nil
}

// Stats aggregates the session's events into usage statistics.
func (r *Recorder) Stats(ctx context.Context, sessionID string) (*ToolStats, error) {
	evs, err := r.Events(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(evs)
	return &stats, nil
}

func key(sessionID, id string) string {
	return sessionID + "/" + id
}

// redactInput replaces bulky payload fields in a raw JSON input with a
// placeholder. Malformed input passes through untouched.
func redactInput(input []byte) []byte {
	if len(input) == 0 || !gjson.ValidBytes(input) {
		return input
	}

	out := input
	for _, field := range bulkyInputFields {
		if !gjson.GetBytes(out, field).Exists() {
			continue
		}
		redacted, err := sjson.SetBytes(out, field, redactedPlaceholder)
		if err != nil {
			return input
		}
		out = redacted
	}
	return out
}
