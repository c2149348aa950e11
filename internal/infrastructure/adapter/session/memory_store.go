// Package session provides SessionStore adapters: an in-memory store for
// single-process deployments and tests, and a Redis-backed store for hosts
// that need conversation state to survive restarts.
//
// Both stores persist JSON snapshots of the TriageState, so swapping one for
// the other never changes observable behavior.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// MemoryStore keeps session state in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
	}
}

// Get loads and decodes the state for a session.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*entity.TriageState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists {
		return nil, port.ErrSessionNotFound
	}
	return decodeState(data)
}

// Put stores a JSON snapshot of the state.
func (s *MemoryStore) Put(ctx context.Context, state *entity.TriageState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return port.ErrNilSessionState
	}

	data, err := encodeState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[state.SessionID] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a session. Absent sessions are not an error.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func encodeState(state *entity.TriageState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*entity.TriageState, error) {
	var state entity.TriageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &state, nil
}
