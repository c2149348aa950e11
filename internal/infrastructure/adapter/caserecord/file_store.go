// Package caserecord provides a file-backed CaseRecordStore. Submitted
// escalation records are written as one JSON file per case, which is the
// stand-in for a CRM or ticketing handoff: a human agent (or a follow-up
// process) can pick cases up straight from the directory.
package caserecord

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// FileStore implements CaseRecordStore with one JSON file per case under a
// base directory. An in-memory index avoids directory scans on lookups.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	index   map[string]bool
}

// NewFileStore creates a file-backed case store, creating the directory if
// needed and indexing any case files already present.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("case store path cannot be empty")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, err
	}

	store := &FileStore{
		baseDir: path,
		index:   make(map[string]bool),
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			store.index[strings.TrimSuffix(entry.Name(), ".json")] = true
		}
	}

	return store, nil
}

// Store persists a submitted case record.
func (s *FileStore) Store(ctx context.Context, record *entity.CaseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return port.ErrNilCaseRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index[record.ID] {
		return port.ErrDuplicateCaseID
	}
	if err := s.writeFile(record); err != nil {
		return err
	}
	s.index[record.ID] = true
	return nil
}

// Get loads a stored case record by ID.
func (s *FileStore) Get(ctx context.Context, id string) (*entity.CaseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.index[id] {
		return nil, port.ErrCaseNotFound
	}

	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		return nil, err
	}
	var record entity.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns the IDs of all stored cases.
func (s *FileStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	return ids
}

func (s *FileStore) filePath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) writeFile(record *entity.CaseRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath(record.ID), data, 0o600)
}
