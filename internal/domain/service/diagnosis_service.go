// Package service provides domain services for the support triage agent:
// the keyword diagnosis engine and the remediation action aggregator.
// Both are pure functions of their inputs and the issue catalog, which makes
// them trivially testable without any collaborator.
package service

import (
	"errors"
	"sort"
	"strings"

	"support-triage-agent/internal/domain/entity"
)

// Sentinel errors for the diagnosis engine.
var (
	ErrEmptyCatalog = errors.New("issue catalog cannot be empty")
	ErrNilCatalog   = errors.New("issue catalog provider is required")
)

// DiagnosisService selects candidate causes for a problem statement using
// prioritized keyword matching over the issue catalog.
//
// The algorithm has two passes. The critical pass scans causes marked
// critical, in catalog order; the first keyword hit returns immediately with
// that cause as primary and no candidates, so hardware-failure signals are
// never diluted by weaker partial matches. The score pass, reached only when
// no critical keyword matched, counts keyword hits per normal cause and
// orders candidates by score, ties broken by catalog declaration order.
type DiagnosisService struct {
	catalog []entity.Cause
}

// NewDiagnosisService creates a diagnosis engine over the given catalog.
// The catalog is copied; later mutation of the caller's slice has no effect.
func NewDiagnosisService(catalog []entity.Cause) (*DiagnosisService, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	owned := make([]entity.Cause, len(catalog))
	copy(owned, catalog)
	return &DiagnosisService{catalog: owned}, nil
}

// Diagnose returns the best-matching causes for the statement.
// A result with a nil primary is the distinguished "unknown" outcome: nothing
// in the catalog matched and the caller should fall back to explicit user
// selection or escalation. Diagnose has no side effects and is deterministic
// for a given (statement, catalog) pair.
func (s *DiagnosisService) Diagnose(statement string) entity.DiagnosisResult {
	normalized := strings.ToLower(strings.TrimSpace(statement))
	if normalized == "" {
		return entity.DiagnosisResult{Candidates: []entity.Cause{}}
	}

	// Critical pass: first keyword hit wins outright.
	for i := range s.catalog {
		cause := s.catalog[i]
		if !cause.IsCritical() {
			continue
		}
		if cause.MatchScore(normalized) > 0 {
			return entity.DiagnosisResult{
				Primary:    &cause,
				Candidates: []entity.Cause{},
			}
		}
	}

	// Score pass over normal causes.
	type scored struct {
		cause entity.Cause
		score int
	}
	var candidates []scored
	for i := range s.catalog {
		cause := s.catalog[i]
		if cause.IsCritical() {
			continue
		}
		if score := cause.MatchScore(normalized); score > 0 {
			candidates = append(candidates, scored{cause: cause, score: score})
		}
	}

	if len(candidates) == 0 {
		return entity.DiagnosisResult{Candidates: []entity.Cause{}}
	}

	// Stable sort keeps catalog declaration order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ordered := make([]entity.Cause, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c.cause)
	}
	primary := ordered[0]

	return entity.DiagnosisResult{
		Primary:    &primary,
		Candidates: ordered,
	}
}

// Catalog returns a defensive copy of the catalog in declaration order.
func (s *DiagnosisService) Catalog() []entity.Cause {
	out := make([]entity.Cause, len(s.catalog))
	copy(out, s.catalog)
	return out
}
