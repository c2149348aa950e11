// Package service provides the application-level orchestration for triage
// conversations: session lifecycle, per-session turn serialization, state
// persistence, and escalation dispatch.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"support-triage-agent/internal/application/dto"
	"support-triage-agent/internal/application/usecase"
	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// Greeting opens every new triage session.
const Greeting = "Hello! I'm your technical support assistant. " +
	"Please describe the hardware issue you are facing to begin the triage process."

// Sentinel errors for the triage service.
var (
	ErrNilTurnUseCase   = errors.New("turn use case is required")
	ErrNilSessionStore  = errors.New("session store is required")
	ErrEmptySessionID   = errors.New("session ID cannot be empty")
)

// TriageService is the entry point hosts call once per user turn. It owns the
// session lifecycle: it creates conversations, loads and saves their state
// around each turn, serializes concurrent turns within one session, and hands
// submitted case records to the escalation handler.
//
// The service itself is stateless apart from the lock registry; all
// conversation state lives in the session store.
type TriageService struct {
	turns      *usecase.TriageTurnUseCase
	sessions   port.SessionStore
	escalation usecase.EscalationHandler

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTriageService creates the service. The escalation handler may be nil,
// in which case submitted cases are only kept on the conversation state.
func NewTriageService(
	turns *usecase.TriageTurnUseCase,
	sessions port.SessionStore,
	escalation usecase.EscalationHandler,
) (*TriageService, error) {
	if turns == nil {
		return nil, ErrNilTurnUseCase
	}
	if sessions == nil {
		return nil, ErrNilSessionStore
	}
	return &TriageService{
		turns:      turns,
		sessions:   sessions,
		escalation: escalation,
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// StartSession creates a fresh conversation and returns the greeting turn.
func (s *TriageService) StartSession(ctx context.Context) (*dto.TurnResponse, error) {
	sessionID := uuid.NewString()
	state, err := entity.NewTriageState(sessionID)
	if err != nil {
		return nil, err
	}
	_ = state.AppendMessage(entity.RoleAssistant, Greeting)

	if err := s.sessions.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	return &dto.TurnResponse{
		SessionID: sessionID,
		Step:      state.Step,
		Messages:  []string{Greeting},
		Expects:   dto.InputKindText,
	}, nil
}

// HandleInput processes one user turn for an existing session. Turns within
// the same session are serialized under a per-session mutex; the state is
// loaded before and persisted after every successful transition evaluation.
func (s *TriageService) HandleInput(
	ctx context.Context,
	sessionID string,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.turns.HandleTurn(ctx, state, req)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist session state: %w", err)
	}

	if resp.CaseID != "" && s.escalation != nil && state.Case != nil {
		if err := s.escalation.HandleEscalation(ctx, sessionID, state.Case); err != nil {
			// The case is already on the conversation state; a failed
			// handoff must not fail the user's turn.
			_ = state.AppendMessage(entity.RoleSystem,
				"Case handoff is delayed; a support agent will still receive your case.")
			_ = s.sessions.Put(ctx, state)
		}
	}

	return resp, nil
}

// Snapshot returns the current conversation state for inspection.
func (s *TriageService) Snapshot(ctx context.Context, sessionID string) (*entity.TriageState, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	return s.sessions.Get(ctx, sessionID)
}

// EndSession removes a conversation from the store and drops its lock.
func (s *TriageService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return nil
}

// sessionLock returns the mutex serializing turns for one session.
func (s *TriageService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[sessionID]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
