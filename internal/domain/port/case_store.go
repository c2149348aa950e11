package port

import (
	"context"
	"errors"

	"support-triage-agent/internal/domain/entity"
)

// Sentinel errors for case record stores.
var (
	ErrNilCaseRecord    = errors.New("case record cannot be nil")
	ErrDuplicateCaseID  = errors.New("case record with this ID already exists")
	ErrCaseNotFound     = errors.New("case record not found")
)

// CaseRecordStore receives submitted escalation records. In production this
// would hand off to a CRM or ticketing system; the shipped adapter writes
// JSON files, which is enough for a human agent to pick the case up.
type CaseRecordStore interface {
	// Store persists a submitted case record.
	Store(ctx context.Context, record *entity.CaseRecord) error

	// Get loads a stored case record by ID, or ErrCaseNotFound.
	Get(ctx context.Context, id string) (*entity.CaseRecord, error)
}
