// Package entity contains the core domain entities for the support triage agent.
package entity

import (
	"errors"
	"strings"
)

// CausePriority classifies how a cause participates in diagnosis.
type CausePriority string

const (
	// CausePriorityCritical marks unambiguous hardware-failure signals.
	// A critical keyword match short-circuits all further scoring.
	CausePriorityCritical CausePriority = "critical"

	// CausePriorityNormal marks causes selected by keyword scoring.
	CausePriorityNormal CausePriority = "normal"
)

// Sentinel errors for Cause validation.
var (
	ErrEmptyCauseID       = errors.New("cause ID cannot be empty")
	ErrEmptyCauseLabel    = errors.New("cause label cannot be empty")
	ErrNoCauseKeywords    = errors.New("cause must have at least one keyword")
	ErrNoCauseActions     = errors.New("cause must have at least one action")
	ErrInvalidPriority    = errors.New("invalid cause priority")
	ErrBlankCauseKeyword  = errors.New("cause keyword cannot be blank")
)

// Cause is a single entry in the issue catalog: a known root cause with the
// keywords that imply it and the remediation actions it prescribes.
// Causes are loaded once at startup and never mutated afterwards.
type Cause struct {
	ID       string        `json:"id" yaml:"id"`
	Label    string        `json:"label" yaml:"label"`
	Priority CausePriority `json:"priority" yaml:"priority"`
	Keywords []string      `json:"keywords" yaml:"keywords"`
	Actions  []string      `json:"actions" yaml:"actions"`
}

// Validate checks that the cause is well formed.
// Keywords are matched case-insensitively, so blank keywords are rejected here
// rather than silently matching everything.
func (c *Cause) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCauseID
	}
	if strings.TrimSpace(c.Label) == "" {
		return ErrEmptyCauseLabel
	}
	if c.Priority != CausePriorityCritical && c.Priority != CausePriorityNormal {
		return ErrInvalidPriority
	}
	if len(c.Keywords) == 0 {
		return ErrNoCauseKeywords
	}
	for _, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return ErrBlankCauseKeyword
		}
	}
	if len(c.Actions) == 0 {
		return ErrNoCauseActions
	}
	return nil
}

// IsCritical reports whether the cause short-circuits diagnosis scoring.
func (c *Cause) IsCritical() bool {
	return c.Priority == CausePriorityCritical
}

// MatchScore counts how many of the cause's keywords occur as substrings in
// the given statement. The statement is expected to be normalized already
// (lowercased and trimmed); keywords are lowercased at match time.
func (c *Cause) MatchScore(statement string) int {
	score := 0
	for _, kw := range c.Keywords {
		if strings.Contains(statement, strings.ToLower(kw)) {
			score++
		}
	}
	return score
}
