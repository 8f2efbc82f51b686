package ide

import (
	"path/filepath"
	"sync"
)

// Selection is the current visual selection in the diff viewer.
type Selection struct {
	FilePath  string
	Text      string
	StartLine int
	EndLine   int
}

// OpenFile describes one file in the review session.
type OpenFile struct {
	FilePath   string
	LanguageID string
	IsDirty    bool
	IsActive   bool
	Status     string
	Reviewed   bool
}

// Diagnostic is one review comment exposed as an IDE diagnostic.
type Diagnostic struct {
	FilePath    string
	StartLine   int
	EndLine     int
	Message     string
	Severity    string
	CommentKind string
}

// Snapshot is the full queryable view of the review session. The host loop
// rebuilds and publishes a fresh snapshot after every state-changing action;
// tool handlers only ever read it.
type Snapshot struct {
	Selection       *Selection
	OpenFiles       []OpenFile
	WorkspacePath   string
	WorkspaceName   string
	Diagnostics     []Diagnostic
	ActiveFileIndex int
}

// WorkspaceFolders derives the workspace folder list. When no explicit name
// was set, the final path segment is used. An unset workspace yields an
// empty list.
func (s Snapshot) WorkspaceFolders() []WorkspaceFolder {
	if s.WorkspacePath == "" {
		return nil
	}
	name := s.WorkspaceName
	if name == "" {
		name = filepath.Base(s.WorkspacePath)
	}
	return []WorkspaceFolder{{URI: "file://" + s.WorkspacePath, Name: name}}
}

// DiagnosticsFor returns the diagnostics, optionally filtered by exact file
// path match.
func (s Snapshot) DiagnosticsFor(filePath string) []Diagnostic {
	if filePath == "" {
		return s.Diagnostics
	}
	var out []Diagnostic
	for _, d := range s.Diagnostics {
		if d.FilePath == filePath {
			out = append(out, d)
		}
	}
	return out
}

// StateStore guards the snapshot for concurrent access. Tool handlers take
// shared read access; the host loop is the only writer.
type StateStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStateStore returns a store holding an empty snapshot.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Read returns the current snapshot. Safe for concurrent callers; the
// returned value must be treated as read-only since publishes replace the
// snapshot wholesale rather than mutating it in place.
func (s *StateStore) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Publish replaces the snapshot, blocking until exclusive access is held.
func (s *StateStore) Publish(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// TryPublish replaces the snapshot only if the lock is immediately
// available. The host loop uses this so a tool read in progress can never
// stall a render frame; a skipped publish is retried on the next
// state-changing action.
func (s *StateStore) TryPublish(snap Snapshot) bool {
	if !s.mu.TryLock() {
		return false
	}
	s.snap = snap
	s.mu.Unlock()
	return true
}
