package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// Sentinel errors for escalation handlers.
var (
	ErrNilCaseRecord      = errors.New("case record cannot be nil")
	ErrCaseNotSubmitted   = errors.New("case record must be submitted before escalation")
	ErrNoEscalationTarget = errors.New("no escalation target configured")
)

// EscalationHandler receives case records once the escalation form has been
// validated and submitted. Handlers are the seam where a CRM or ticketing
// integration would plug in; the shipped implementations log, persist to a
// case store, and fan out to both.
type EscalationHandler interface {
	// HandleEscalation delivers a submitted case record.
	HandleEscalation(ctx context.Context, sessionID string, record *entity.CaseRecord) error
}

// EscalationReceipt records one delivered escalation.
type EscalationReceipt struct {
	CaseID      string
	SessionID   string
	Target      string
	DeliveredAt time.Time
}

// MemoryEscalationHandler keeps delivered escalations in memory.
// It is the default handler for chat sessions and the one tests inspect.
type MemoryEscalationHandler struct {
	mu       sync.RWMutex
	receipts map[string][]EscalationReceipt
}

// NewMemoryEscalationHandler creates an in-memory escalation handler.
func NewMemoryEscalationHandler() *MemoryEscalationHandler {
	return &MemoryEscalationHandler{
		receipts: make(map[string][]EscalationReceipt),
	}
}

// HandleEscalation records the delivery.
func (h *MemoryEscalationHandler) HandleEscalation(
	ctx context.Context,
	sessionID string,
	record *entity.CaseRecord,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return ErrNilCaseRecord
	}
	if !record.IsSubmitted() {
		return ErrCaseNotSubmitted
	}

	receipt := EscalationReceipt{
		CaseID:      record.ID,
		SessionID:   sessionID,
		Target:      "memory",
		DeliveredAt: time.Now(),
	}

	h.mu.Lock()
	h.receipts[record.ID] = append(h.receipts[record.ID], receipt)
	h.mu.Unlock()

	return nil
}

// Receipts returns the deliveries recorded for a case ID.
func (h *MemoryEscalationHandler) Receipts(caseID string) []EscalationReceipt {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if receipts, exists := h.receipts[caseID]; exists {
		out := make([]EscalationReceipt, len(receipts))
		copy(out, receipts)
		return out
	}
	return []EscalationReceipt{}
}

// StoreEscalationHandler persists submitted case records through a
// CaseRecordStore, standing in for the CRM handoff.
type StoreEscalationHandler struct {
	store port.CaseRecordStore
}

// NewStoreEscalationHandler creates a store-backed escalation handler.
func NewStoreEscalationHandler(store port.CaseRecordStore) (*StoreEscalationHandler, error) {
	if store == nil {
		return nil, ErrNoEscalationTarget
	}
	return &StoreEscalationHandler{store: store}, nil
}

// HandleEscalation writes the record to the case store.
func (h *StoreEscalationHandler) HandleEscalation(
	ctx context.Context,
	_ string,
	record *entity.CaseRecord,
) error {
	if record == nil {
		return ErrNilCaseRecord
	}
	if !record.IsSubmitted() {
		return ErrCaseNotSubmitted
	}
	return h.store.Store(ctx, record)
}

// CompositeEscalationHandler fans a case record out to several handlers.
// Delivery is best-effort per handler; the first error is returned after all
// handlers ran, so one failing target does not starve the others.
type CompositeEscalationHandler struct {
	handlers []EscalationHandler
}

// NewCompositeEscalationHandler chains the given handlers.
func NewCompositeEscalationHandler(handlers ...EscalationHandler) *CompositeEscalationHandler {
	return &CompositeEscalationHandler{handlers: handlers}
}

// HandleEscalation delivers to every handler in order.
func (h *CompositeEscalationHandler) HandleEscalation(
	ctx context.Context,
	sessionID string,
	record *entity.CaseRecord,
) error {
	if record == nil {
		return ErrNilCaseRecord
	}

	var firstErr error
	for _, handler := range h.handlers {
		if err := handler.HandleEscalation(ctx, sessionID, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
