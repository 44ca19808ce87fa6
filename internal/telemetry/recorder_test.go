package telemetry

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hcostelha/scribe/internal/classify"
	"github.com/hcostelha/scribe/internal/tracking"
)

func statNone(string) (os.FileInfo, error) {
	return nil, os.ErrNotExist
}

func statAll(string) (os.FileInfo, error) {
	return os.Stat(os.TempDir())
}

// flakyStore wraps a Store and fails on demand, for degraded-mode tests.
type flakyStore struct {
	inner        Store
	failInsert   bool
	failComplete bool
}

func (s *flakyStore) Insert(ctx context.Context, ev *Event) error {
	if s.failInsert {
		return errors.New("disk full")
	}
	return s.inner.Insert(ctx, ev)
}

func (s *flakyStore) Complete(ctx context.Context, sessionID, id string, status Status, errorMessage string) error {
	if s.failComplete {
		return errors.New("disk full")
	}
	return s.inner.Complete(ctx, sessionID, id, status, errorMessage)
}

func (s *flakyStore) Get(ctx context.Context, sessionID, id string) (*Event, error) {
	return s.inner.Get(ctx, sessionID, id)
}

func (s *flakyStore) ListBySession(ctx context.Context, sessionID string) ([]*Event, error) {
	return s.inner.ListBySession(ctx, sessionID)
}

func TestRecorder_Begin(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	t.Run("records a pending event with its classification", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/a.go","content":"x"}`))
		if id == "" {
			t.Fatal("Begin() returned empty event ID")
		}

		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != StatusPending {
			t.Errorf("Status = %q, want %q", got.Status, StatusPending)
		}
		if got.Operation != classify.OpCreate {
			t.Errorf("Operation = %q, want %q (first write to missing file)", got.Operation, classify.OpCreate)
		}
		if got.FilePath != "/tmp/a.go" {
			t.Errorf("FilePath = %q, want %q", got.FilePath, "/tmp/a.go")
		}
	})

	t.Run("write to existing file records modify", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statAll)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/b.go","content":"x"}`))
		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Operation != classify.OpModify {
			t.Errorf("Operation = %q, want %q", got.Operation, classify.OpModify)
		}
	})

	t.Run("redacts bulky input fields", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write",
			[]byte(`{"file_path":"/tmp/c.go","content":"line1\nline2\nline3"}`))
		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if strings.Contains(got.Input, "line1") {
			t.Errorf("Input retains file contents: %s", got.Input)
		}
		if !strings.Contains(got.Input, "/tmp/c.go") {
			t.Errorf("Input lost the file path: %s", got.Input)
		}
	})

	t.Run("file tool without path records unknown", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"content":"x"}`))
		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Operation != classify.OpUnknown {
			t.Errorf("Operation = %q, want %q", got.Operation, classify.OpUnknown)
		}
		if got.FilePath != "" {
			t.Errorf("FilePath = %q, want empty", got.FilePath)
		}
	})
}

func TestRecorder_Complete(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	t.Run("finalizes a successful call", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "bash", []byte(`{"command":"ls"}`))
		rec.Complete(ctx, "sess-1", id, true, "")

		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != StatusOK {
			t.Errorf("Status = %q, want %q", got.Status, StatusOK)
		}
	})

	t.Run("failed create releases the path reservation", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/fail.go","content":"x"}`))
		rec.Complete(ctx, "sess-1", id, false, "permission denied")

		got, err := store.Get(ctx, "sess-1", id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", got.Status, StatusFailed)
		}
		if got.ErrorMessage != "permission denied" {
			t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, "permission denied")
		}
		if tracker.HasBeenCreated("sess-1", "/tmp/fail.go") {
			t.Error("failed create should release the reservation")
		}

		// The retry is still this session's create of the path.
		retryID := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/fail.go","content":"x"}`))
		retry, err := store.Get(ctx, "sess-1", retryID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if retry.Operation != classify.OpCreate {
			t.Errorf("retry Operation = %q, want %q", retry.Operation, classify.OpCreate)
		}
	})

	t.Run("successful create keeps the path marked", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/keep.go","content":"x"}`))
		rec.Complete(ctx, "sess-1", id, true, "")

		if !tracker.HasBeenCreated("sess-1", "/tmp/keep.go") {
			t.Error("successful create should stay in session history")
		}

		secondID := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/keep.go","content":"y"}`))
		second, err := store.Get(ctx, "sess-1", secondID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if second.Operation != classify.OpModify {
			t.Errorf("second write Operation = %q, want %q", second.Operation, classify.OpModify)
		}
	})

	t.Run("completing an unknown event is a no-op", func(t *testing.T) {
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		rec.Complete(ctx, "sess-1", "never-begun", true, "")
	})
}

func TestRecorder_Degraded(t *testing.T) {
	database := setupTestDB(t)
	real := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	t.Run("storage failure never blocks the call", func(t *testing.T) {
		flaky := &flakyStore{inner: real, failInsert: true}
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(flaky, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/deg.go","content":"x"}`))
		if id == "" {
			t.Fatal("Begin() returned empty event ID despite storage failure")
		}

		// Not durable, but still visible through the recorder.
		if _, err := real.Get(ctx, "sess-1", id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}

		evs, err := rec.Events(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		found := false
		for _, ev := range evs {
			if ev.ID == id {
				found = true
				if ev.Operation != classify.OpCreate {
					t.Errorf("Operation = %q, want %q", ev.Operation, classify.OpCreate)
				}
			}
		}
		if !found {
			t.Error("degraded event missing from Events()")
		}
	})

	t.Run("completion of a degraded event stays in memory", func(t *testing.T) {
		flaky := &flakyStore{inner: real, failInsert: true}
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(flaky, tracker, nil)

		id := rec.Begin(ctx, "sess-1", "bash", []byte(`{"command":"ls"}`))
		rec.Complete(ctx, "sess-1", id, false, "exit 1")

		evs, err := rec.Events(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		for _, ev := range evs {
			if ev.ID == id {
				if ev.Status != StatusFailed {
					t.Errorf("Status = %q, want %q", ev.Status, StatusFailed)
				}
				if ev.ErrorMessage != "exit 1" {
					t.Errorf("ErrorMessage = %q, want %q", ev.ErrorMessage, "exit 1")
				}
				return
			}
		}
		t.Error("degraded event missing from Events()")
	})

	t.Run("failed completion moves the event to memory", func(t *testing.T) {
		flaky := &flakyStore{inner: real}
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(flaky, tracker, nil)

		id := rec.Begin(ctx, "sess-fc", "bash", []byte(`{"command":"ls"}`))
		flaky.failComplete = true
		rec.Complete(ctx, "sess-fc", id, true, "")

		// The store still holds the stale pending row; the memory copy
		// supersedes it rather than reporting the call twice.
		evs, err := rec.Events(ctx, "sess-fc")
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		seen := 0
		var got *Event
		for _, ev := range evs {
			if ev.ID == id {
				seen++
				got = ev
			}
		}
		if seen != 1 {
			t.Fatalf("event %s appears %d times, want 1", id, seen)
		}
		if got.Status != StatusOK {
			t.Errorf("Status = %q, want %q", got.Status, StatusOK)
		}

		stats, err := rec.Stats(ctx, "sess-fc")
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalCalls != 1 {
			t.Errorf("TotalCalls = %d, want 1 (one invocation, one count)", stats.TotalCalls)
		}
	})

	t.Run("aggregation runs concurrently with completions", func(t *testing.T) {
		flaky := &flakyStore{inner: real, failInsert: true}
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(flaky, tracker, nil)

		const calls = 20
		ids := make([]string, calls)
		for i := range ids {
			ids[i] = rec.Begin(ctx, "sess-race", "bash", []byte(`{"command":"ls"}`))
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				rec.Complete(ctx, "sess-race", id, true, "")
			}
		}()
		go func() {
			defer wg.Done()
			for range ids {
				if _, err := rec.Stats(ctx, "sess-race"); err != nil {
					t.Errorf("Stats() error = %v", err)
				}
			}
		}()
		wg.Wait()

		stats, err := rec.Stats(ctx, "sess-race")
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalCalls != calls {
			t.Errorf("TotalCalls = %d, want %d", stats.TotalCalls, calls)
		}
		if stats.SuccessfulCalls != calls {
			t.Errorf("SuccessfulCalls = %d, want %d", stats.SuccessfulCalls, calls)
		}
	})
}

func TestRecorder_FileCreated(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	tracker := tracking.NewTrackerWithStat(statNone)
	rec := NewRecorder(store, tracker, nil)

	// A side-effect create (e.g. edit with empty old_string) feeds the
	// session history so later writes count as modify.
	rec.FileCreated("sess-1", "/tmp/side.go")

	if !rec.HasFileBeenCreated("sess-1", "/tmp/side.go") {
		t.Error("HasFileBeenCreated() = false after FileCreated")
	}
	if rec.HasFileBeenCreated("sess-2", "/tmp/side.go") {
		t.Error("HasFileBeenCreated() leaked across sessions")
	}

	id := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/side.go","content":"x"}`))
	got, err := store.Get(ctx, "sess-1", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Operation != classify.OpModify {
		t.Errorf("Operation = %q, want %q", got.Operation, classify.OpModify)
	}
}

func TestRecorder_RestoreSession(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	// First run: one successful create, one failed create, one modify.
	{
		tracker := tracking.NewTrackerWithStat(statNone)
		rec := NewRecorder(store, tracker, nil)

		okID := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/r1.go","content":"x"}`))
		rec.Complete(ctx, "sess-1", okID, true, "")

		failID := rec.Begin(ctx, "sess-1", "write", []byte(`{"file_path":"/tmp/r2.go","content":"x"}`))
		rec.Complete(ctx, "sess-1", failID, false, "disk full")

		modID := rec.Begin(ctx, "sess-1", "edit", []byte(`{"file_path":"/tmp/r1.go","old_string":"x","new_string":"y"}`))
		rec.Complete(ctx, "sess-1", modID, true, "")
	}

	// Resumed run: fresh tracker rebuilt from the event log.
	tracker := tracking.NewTrackerWithStat(statNone)
	rec := NewRecorder(store, tracker, nil)
	if err := rec.RestoreSession(ctx, "sess-1"); err != nil {
		t.Fatalf("RestoreSession() error = %v", err)
	}

	if !tracker.HasBeenCreated("sess-1", "/tmp/r1.go") {
		t.Error("successful create should be restored")
	}
	if tracker.HasBeenCreated("sess-1", "/tmp/r2.go") {
		t.Error("failed create should not be restored")
	}
}
