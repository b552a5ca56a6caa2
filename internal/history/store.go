// Package history keeps a bounded, newest-first log of executed requests in
// the workspace's .vortex directory.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vortexhq/vortex/internal/errdef"
)

type Entry struct {
	ID          string        `json:"id"`
	ExecutedAt  time.Time     `json:"executedAt"`
	Environment string        `json:"environment"`
	Collection  string        `json:"collection"`
	RequestID   string        `json:"requestId"`
	RequestName string        `json:"requestName"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Status      string        `json:"status"`
	StatusCode  int           `json:"statusCode"`
	Duration    time.Duration `json:"duration"`
	BodySnippet string        `json:"bodySnippet"`
	Unresolved  []string      `json:"unresolved,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type Store struct {
	path       string
	maxEntries int
	entries    []Entry
	mu         sync.RWMutex
	loaded     bool
}

func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{path: path, maxEntries: maxEntries}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

// Append inserts the entry, keeps the log sorted newest-first and trims it to
// the configured bound before persisting.
func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	s.entries = append([]Entry{entry}, s.entries...)
	s.sortLocked()
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}
	return s.persist()
}

func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}

	idx := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	copy(s.entries[idx:], s.entries[idx+1:])
	s.entries = s.entries[:len(s.entries)-1]
	return true, s.persist()
}

// ByRequest matches entries by request ID or, when that misses, by name.
func (s *Store) ByRequest(identifier string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	var matched []Entry
	for _, entry := range s.entries {
		if entry.RequestID == trimmed || entry.RequestName == trimmed {
			matched = append(matched, entry)
		}
	}
	return matched
}

func (s *Store) ByEnvironment(name string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return nil
	}

	var matched []Entry
	for _, entry := range s.entries {
		if strings.ToLower(entry.Environment) == trimmed {
			matched = append(matched, entry)
		}
	}
	return matched
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write history tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace history file")
	}
	return nil
}

func (s *Store) sortLocked() {
	if len(s.entries) < 2 {
		return
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return newerFirst(s.entries[i], s.entries[j])
	})
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeHistory, err, "read history")
	}
	if len(data) == 0 {
		s.entries = []Entry{}
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "parse history")
	}
	s.sortLocked()
	s.loaded = true
	return nil
}

func newerFirst(a, b Entry) bool {
	switch {
	case a.ExecutedAt.IsZero() && b.ExecutedAt.IsZero():
		return a.ID > b.ID
	case a.ExecutedAt.IsZero():
		return false
	case b.ExecutedAt.IsZero():
		return true
	case a.ExecutedAt.Equal(b.ExecutedAt):
		return a.ID > b.ID
	default:
		return a.ExecutedAt.After(b.ExecutedAt)
	}
}
