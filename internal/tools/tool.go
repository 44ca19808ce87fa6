// Package tools provides the agent's filesystem and shell tools.
package tools

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// contextKey is the private type for values tools read from the call context.
type contextKey string

const (
	sessionIDKey  contextKey = "session_id"
	workingDirKey contextKey = "working_dir"
)

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext retrieves the session ID from the context.
func SessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionIDKey).(string)
	return s
}

// WithWorkingDir adds a working directory to the context.
func WithWorkingDir(ctx context.Context, workingDir string) context.Context {
	return context.WithValue(ctx, workingDirKey, workingDir)
}

// WorkingDirFromContext retrieves the working directory from the context.
func WorkingDirFromContext(ctx context.Context) string {
	s, _ := ctx.Value(workingDirKey).(string)
	return s
}

// ResolvePath resolves a potentially relative path against the working directory.
func ResolvePath(workingDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(workingDir, path))
}

// IsPathWithinDir checks if a path is within the given directory.
func IsPathWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

// FileCreatedObserver is notified when a tool creates a file as a side
// effect, so session file-tracking state stays accurate for tools the
// pre-call classifier treats as unambiguous.
type FileCreatedObserver func(sessionID, path string)

// fileRecord tracks when a file was last read and written by tools.
type fileRecord struct {
	readTime  time.Time
	writeTime time.Time
}

var (
	fileRecords     = make(map[string]fileRecord)
	fileRecordMutex sync.RWMutex
)

// RecordFileRead records that a file was read.
func RecordFileRead(path string) {
	fileRecordMutex.Lock()
	defer fileRecordMutex.Unlock()

	record := fileRecords[path]
	record.readTime = time.Now()
	fileRecords[path] = record
}

// GetLastReadTime returns the last time a file was read.
func GetLastReadTime(path string) time.Time {
	fileRecordMutex.RLock()
	defer fileRecordMutex.RUnlock()
	return fileRecords[path].readTime
}

// RecordFileWrite records that a file was written.
func RecordFileWrite(path string) {
	fileRecordMutex.Lock()
	defer fileRecordMutex.Unlock()

	record := fileRecords[path]
	record.writeTime = time.Now()
	fileRecords[path] = record
}

// GetLastWriteTime returns the last time a file was written.
func GetLastWriteTime(path string) time.Time {
	fileRecordMutex.RLock()
	defer fileRecordMutex.RUnlock()
	return fileRecords[path].writeTime
}

// ClearFileRecords clears all file records.
func ClearFileRecords() {
	fileRecordMutex.Lock()
	defer fileRecordMutex.Unlock()
	fileRecords = make(map[string]fileRecord)
}
