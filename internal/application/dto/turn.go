// Package dto defines the request and response shapes exchanged between the
// transports (CLI, HTTP) and the application services.
package dto

import (
	"support-triage-agent/internal/domain/entity"
)

// InputKind tells the transport what the conversation expects next, so it
// can render the right input widget (free text, yes/no, cause selection, or
// the escalation form).
type InputKind string

const (
	InputKindNone      InputKind = "none"
	InputKindText      InputKind = "text"
	InputKindYesNo     InputKind = "yes_no"
	InputKindSelection InputKind = "selection"
	InputKindForm      InputKind = "form"
)

// EscalationForm carries the fields of the case creation form.
// Phone is the only optional field.
type EscalationForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Product string `json:"product"`
}

// TurnRequest is one user turn. Exactly one of the payload fields is
// meaningful, decided by the conversation's current step: Text for statement,
// answer, and yes/no steps; Selection or NoneApply for diagnosis
// confirmation; Form for the escalation form.
type TurnRequest struct {
	Text      string          `json:"text,omitempty"`
	Selection []string        `json:"selection,omitempty"`
	NoneApply bool            `json:"none_apply,omitempty"`
	Form      *EscalationForm `json:"form,omitempty"`
}

// CauseOption is a selectable cause shown during diagnosis confirmation.
type CauseOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Preselected bool   `json:"preselected"`
}

// TurnResponse is what the conversation says back after one turn.
type TurnResponse struct {
	SessionID string `json:"session_id"`

	// Step is the conversation step after this turn.
	Step entity.Step `json:"step"`

	// Messages are the assistant messages produced this turn, in order.
	Messages []string `json:"messages"`

	// Expects tells the transport what input the next turn needs.
	Expects InputKind `json:"expects"`

	// Options lists the selectable causes when Expects is selection.
	Options []CauseOption `json:"options,omitempty"`

	// FieldErrors lists escalation form problems when validation failed.
	FieldErrors []entity.FieldError `json:"field_errors,omitempty"`

	// ActionPlan is set once remediation actions have been aggregated.
	ActionPlan []string `json:"action_plan,omitempty"`

	// CaseID is set when a case record was submitted this turn.
	CaseID string `json:"case_id,omitempty"`

	// Closed is true once the conversation reached its terminal step.
	Closed bool `json:"closed"`
}
