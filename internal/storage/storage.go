package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"onestopradio/internal/models"
)

// Store handles persistence of diagnostics history to disk. Entries from both
// panels share one file and carry their panel name.
type Store struct {
	mu      sync.RWMutex
	path    string
	history []models.StatusEntry
}

// New creates a store and loads existing history if present.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds a new pass entry and persists it to disk.
func (s *Store) Append(entry models.StatusEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	return s.persistLocked()
}

// Latest returns the latest entry for the given panel, if any.
func (s *Store) Latest(panel string) (models.StatusEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Panel == panel {
			return s.history[i], true
		}
	}
	return models.StatusEntry{}, false
}

// History returns a copy of the entire history slice.
func (s *Store) History() []models.StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]models.StatusEntry, len(s.history))
	copy(copied, s.history)
	return copied
}

// HistoryN returns up to limit most recent entries for the given panel.
// An empty panel matches all entries.
func (s *Store) HistoryN(panel string, limit int) []models.StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.StatusEntry, 0, len(s.history))
	for _, entry := range s.history {
		if panel != "" && entry.Panel != panel {
			continue
		}
		matched = append(matched, entry)
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.history = []models.StatusEntry{}
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		s.history = []models.StatusEntry{}
		return nil
	}

	var entries []models.StatusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}
	s.history = entries
	return nil
}

func (s *Store) persistLocked() error {
	bytes, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
