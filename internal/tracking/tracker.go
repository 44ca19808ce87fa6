// Package tracking maintains per-session file provenance state.
//
// The tracker answers one question the classifier cannot: is this write the
// first write to a brand-new file, or an overwrite of something that already
// existed? It combines session-local history (paths this session created)
// with a pre-call existence check against the filesystem.
package tracking

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/hcostelha/scribe/internal/classify"
)

// StatFunc checks a path's existence; injectable for tests.
type StatFunc func(path string) (os.FileInfo, error)

// Tracker records which paths each session has created.
// All state is in-memory and rebuildable by replaying the session's event
// log; it is created empty at session start and discarded at session end.
type Tracker struct {
	// DefaultOnStatError is the operation assigned when the pre-call
	// existence check itself fails. Defaults to Modify: undercounting
	// creates is safer for downstream metrics than overcounting them.
	// This is policy, not law; see the tests that pin it down.
	DefaultOnStatError classify.Operation

	stat     StatFunc
	mu       sync.Mutex
	sessions map[string]*sessionPaths
}

// sessionPaths holds the created-path set for one session.
// Each session has its own lock so concurrent tool batches in different
// sessions never contend.
type sessionPaths struct {
	mu      sync.Mutex
	created map[string]struct{}
}

// NewTracker creates a tracker backed by the real filesystem.
func NewTracker() *Tracker {
	return &Tracker{
		DefaultOnStatError: classify.OpModify,
		stat:               os.Stat,
		sessions:           make(map[string]*sessionPaths),
	}
}

// NewTrackerWithStat creates a tracker with a custom existence check.
func NewTrackerWithStat(stat StatFunc) *Tracker {
	t := NewTracker()
	t.stat = stat
	return t
}

// session returns the path set for sessionID, creating it if needed.
func (t *Tracker) session(sessionID string) *sessionPaths {
	t.mu.Lock()
	defer t.mu.Unlock()

	sp, ok := t.sessions[sessionID]
	if !ok {
		sp = &sessionPaths{created: make(map[string]struct{})}
		t.sessions[sessionID] = sp
	}
	return sp
}

// HasBeenCreated reports whether the session created the given path.
func (t *Tracker) HasBeenCreated(sessionID, path string) bool {
	sp := t.session(sessionID)
	path = filepath.Clean(path)

	sp.mu.Lock()
	defer sp.mu.Unlock()
	_, ok := sp.created[path]
	return ok
}

// MarkCreated records that the session created the given path.
func (t *Tracker) MarkCreated(sessionID, path string) {
	sp := t.session(sessionID)
	path = filepath.Clean(path)

	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.created[path] = struct{}{}
}

// Resolve disambiguates a write-style call against session history and the
// filesystem, immediately before the tool executes:
//
//   - path unknown to the session AND absent on disk → Create. The path is
//     reserved in the created set under the session lock, so of two racing
//     first-writes exactly one resolves to Create.
//   - path already created this session, or already present on disk → Modify.
//   - existence check fails → DefaultOnStatError.
func (t *Tracker) Resolve(sessionID, path string) classify.Operation {
	sp := t.session(sessionID)
	path = filepath.Clean(path)

	sp.mu.Lock()
	defer sp.mu.Unlock()

	if _, ok := sp.created[path]; ok {
		return classify.OpModify
	}

	if _, err := t.stat(path); err == nil {
		return classify.OpModify
	} else if !os.IsNotExist(err) {
		return t.DefaultOnStatError
	}

	sp.created[path] = struct{}{}
	return classify.OpCreate
}

// Release undoes a Resolve reservation after the owning call failed, so a
// retried write can still count as the session's create of that path.
// History of successful creates is never released.
func (t *Tracker) Release(sessionID, path string) {
	sp := t.session(sessionID)
	path = filepath.Clean(path)

	sp.mu.Lock()
	defer sp.mu.Unlock()
	delete(sp.created, path)
}

// Seed marks a batch of paths as created, used when rebuilding state for a
// resumed session from its event log.
func (t *Tracker) Seed(sessionID string, paths []string) {
	sp := t.session(sessionID)

	sp.mu.Lock()
	defer sp.mu.Unlock()
	for _, p := range paths {
		sp.created[filepath.Clean(p)] = struct{}{}
	}
}

// CreatedPaths returns a snapshot of the session's created paths.
func (t *Tracker) CreatedPaths(sessionID string) []string {
	sp := t.session(sessionID)

	sp.mu.Lock()
	defer sp.mu.Unlock()

	paths := make([]string, 0, len(sp.created))
	for p := range sp.created {
		paths = append(paths, p)
	}
	return paths
}

// EndSession discards all tracking state for a session.
func (t *Tracker) EndSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}
