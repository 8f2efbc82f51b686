// Package stores persists review sessions as JSON files under the data
// directory.
package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/colonyops/crit/internal/core/review"
)

// ErrNotFound is returned when no stored session matches a lookup.
var ErrNotFound = errors.New("session not found")

// sessionsFile is the root JSON structure stored on disk.
type sessionsFile struct {
	Sessions []review.Session `json:"sessions"`
}

// ReviewStore persists review sessions using a JSON file.
type ReviewStore struct {
	path string
	mu   sync.RWMutex
}

// NewReviewStore creates a store backed by <dataDir>/sessions.json.
func NewReviewStore(dataDir string) *ReviewStore {
	return &ReviewStore{path: filepath.Join(dataDir, "sessions.json")}
}

// List returns all stored sessions, most recently updated first.
func (s *ReviewStore) List() ([]review.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.Slice(file.Sessions, func(i, j int) bool {
		return file.Sessions[i].UpdatedAt.After(file.Sessions[j].UpdatedAt)
	})
	return file.Sessions, nil
}

// Get returns a session by ID. Returns ErrNotFound if not found.
func (s *ReviewStore) Get(id string) (review.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return review.Session{}, err
	}

	for _, session := range file.Sessions {
		if session.ID == id {
			return session, nil
		}
	}

	return review.Session{}, ErrNotFound
}

// Latest returns the most recently updated session for a workspace and diff
// context, or ErrNotFound when none exists. Used to resume reviews.
func (s *ReviewStore) Latest(workspacePath, diffContext string) (review.Session, error) {
	sessions, err := s.List()
	if err != nil {
		return review.Session{}, err
	}

	for _, session := range sessions {
		if session.WorkspacePath == workspacePath && session.DiffContext == diffContext {
			return session, nil
		}
	}

	return review.Session{}, ErrNotFound
}

// Save inserts or replaces a session by ID.
func (s *ReviewStore) Save(session *review.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Sessions {
		if file.Sessions[i].ID == session.ID {
			file.Sessions[i] = *session
			replaced = true
			break
		}
	}
	if !replaced {
		file.Sessions = append(file.Sessions, *session)
	}

	return s.save(file)
}

// Delete removes a session by ID. Returns ErrNotFound if not found.
func (s *ReviewStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for i := range file.Sessions {
		if file.Sessions[i].ID == id {
			file.Sessions = append(file.Sessions[:i], file.Sessions[i+1:]...)
			return s.save(file)
		}
	}

	return ErrNotFound
}

// load reads the sessions file from disk.
// Returns an empty file if it doesn't exist.
func (s *ReviewStore) load() (sessionsFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return sessionsFile{}, nil
		}
		return sessionsFile{}, fmt.Errorf("read sessions: %w", err)
	}

	if len(data) == 0 {
		return sessionsFile{}, nil
	}

	var file sessionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return sessionsFile{}, fmt.Errorf("parse sessions: %w", err)
	}

	return file, nil
}

// save writes the sessions file to disk atomically.
func (s *ReviewStore) save(file sessionsFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}

	return os.Rename(tmp, s.path)
}
