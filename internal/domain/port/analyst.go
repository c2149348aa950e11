// Package port defines the inbound and outbound interfaces of the triage
// core. Adapters in the infrastructure layer implement these ports, which
// keeps the state machine fully testable with fakes and no network access.
package port

import (
	"context"
	"errors"

	"support-triage-agent/internal/domain/entity"
)

// ErrAnalystUnavailable is returned by adapters when the underlying
// text-generation service cannot be reached. Callers recover with the
// documented fallbacks and never surface this as a fatal error.
var ErrAnalystUnavailable = errors.New("triage analyst unavailable")

// ClarityEvaluation is the analyst's verdict on a problem statement.
type ClarityEvaluation struct {
	// Clear is true when the statement is specific enough to diagnose
	// without further refinement.
	Clear bool `json:"clear"`
}

// TriageAnalyst is the outbound port for the external text-generation
// collaborator. Implementations are potentially slow network calls; the
// caller bounds every call with a timeout and applies a fallback on error:
// clarity defaults to vague, follow-ups default to none, and summaries fall
// back to a deterministic template.
type TriageAnalyst interface {
	// EvaluateClarity judges whether the statement is clear enough to skip
	// the refinement loop.
	EvaluateClarity(ctx context.Context, statement string) (*ClarityEvaluation, error)

	// GenerateFollowups produces follow-up questions for a vague statement,
	// taking already-collected answers into account. An empty result ends
	// the refinement loop.
	GenerateFollowups(ctx context.Context, statement string, prior []entity.RefinementPair) ([]string, error)

	// SynthesizeSummary turns the triage outcome into a human-readable case
	// summary for the escalation record.
	SynthesizeSummary(ctx context.Context, statement string, causes []entity.Cause, actions []string) (string, error)
}
