package port

import (
	"context"
	"errors"

	"support-triage-agent/internal/domain/entity"
)

// Sentinel errors for session stores.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSessionState = errors.New("session state cannot be nil")
)

// SessionStore persists conversation state between turns, keyed by session
// ID. The TriageState is the only unit a host has to persist; stores treat it
// as an opaque snapshot and never reach into it. Serializing turns within one
// session is the caller's job, not the store's.
type SessionStore interface {
	// Get loads the state for a session, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*entity.TriageState, error)

	// Put saves the state under its session ID, overwriting any previous
	// snapshot.
	Put(ctx context.Context, state *entity.TriageState) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
