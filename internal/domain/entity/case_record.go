package entity

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// CaseStatus is the lifecycle state of an escalation case record.
type CaseStatus string

const (
	// CaseStatusDraft marks a record still being filled in by the user.
	CaseStatusDraft CaseStatus = "draft"

	// CaseStatusSubmitted marks a record handed off to a human agent.
	// The transition from draft is one-way; a submitted record is immutable.
	CaseStatusSubmitted CaseStatus = "submitted"
)

// Sentinel errors for CaseRecord.
var (
	ErrEmptyCaseID          = errors.New("case ID cannot be empty")
	ErrCaseAlreadySubmitted = errors.New("case record is already submitted")
	ErrCaseNotValid         = errors.New("case record has validation errors")
)

// Escalation form field names, used in field-level validation errors.
const (
	FieldContactName  = "contact_name"
	FieldContactEmail = "contact_email"
	FieldProductModel = "product_model"
	FieldSummary      = "summary"
)

// FieldError describes a single invalid or missing form field.
// Validation failures are data shown to the user, never process errors.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationResult is the outcome of validating a case record.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether validation passed.
func (v ValidationResult) OK() bool {
	return len(v.Errors) == 0
}

// CaseRecord is the structured escalation payload handed to a human agent
// when remediation fails. It is created lazily when the conversation reaches
// the escalation form and becomes immutable once submitted.
type CaseRecord struct {
	ID              string     `json:"id"`
	ProblemStatement string    `json:"problem_statement"`
	ConfirmedCauses []Cause    `json:"confirmed_causes"`
	ActionPlan      []string   `json:"action_plan"`
	Summary         string     `json:"summary"`
	ContactName     string     `json:"contact_name"`
	ContactEmail    string     `json:"contact_email"`
	ContactPhone    string     `json:"contact_phone,omitempty"`
	ProductModel    string     `json:"product_model"`
	Status          CaseStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	SubmittedAt     time.Time  `json:"submitted_at,omitempty"`
}

// NewCaseRecord creates a draft case record carrying the triage outcome.
// Contact and product fields are filled in later from the escalation form.
func NewCaseRecord(id, problemStatement, summary string, causes []Cause, actionPlan []string) (*CaseRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyCaseID
	}
	confirmed := make([]Cause, len(causes))
	copy(confirmed, causes)
	plan := make([]string, len(actionPlan))
	copy(plan, actionPlan)

	return &CaseRecord{
		ID:               id,
		ProblemStatement: problemStatement,
		ConfirmedCauses:  confirmed,
		ActionPlan:       plan,
		Summary:          summary,
		Status:           CaseStatusDraft,
		CreatedAt:        time.Now(),
	}, nil
}

// SetContact fills in the contact fields from the escalation form.
// Rejected once the record is submitted.
func (r *CaseRecord) SetContact(name, email, phone string) error {
	if r.Status == CaseStatusSubmitted {
		return ErrCaseAlreadySubmitted
	}
	r.ContactName = strings.TrimSpace(name)
	r.ContactEmail = strings.TrimSpace(email)
	r.ContactPhone = strings.TrimSpace(phone)
	return nil
}

// SetProduct fills in the product identifier from the escalation form.
func (r *CaseRecord) SetProduct(model string) error {
	if r.Status == CaseStatusSubmitted {
		return ErrCaseAlreadySubmitted
	}
	r.ProductModel = strings.TrimSpace(model)
	return nil
}

// Validate checks the mandatory fields: contact name, a syntactically valid
// contact email, product identifier, and a non-empty summary. It returns
// field-level reasons rather than failing on the first problem so the user
// can correct the whole form in one pass.
func (r *CaseRecord) Validate() ValidationResult {
	var errs []FieldError

	if strings.TrimSpace(r.ContactName) == "" {
		errs = append(errs, FieldError{Field: FieldContactName, Reason: "contact name is required"})
	}
	switch email := strings.TrimSpace(r.ContactEmail); {
	case email == "":
		errs = append(errs, FieldError{Field: FieldContactEmail, Reason: "contact email is required"})
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			errs = append(errs, FieldError{Field: FieldContactEmail, Reason: "contact email is not a valid address"})
		}
	}
	if strings.TrimSpace(r.ProductModel) == "" {
		errs = append(errs, FieldError{Field: FieldProductModel, Reason: "product model is required"})
	}
	if strings.TrimSpace(r.Summary) == "" {
		errs = append(errs, FieldError{Field: FieldSummary, Reason: "case summary is required"})
	}

	return ValidationResult{Errors: errs}
}

// Submit validates the record and, on success, performs the one-way
// draft -> submitted transition. On validation failure the record stays in
// draft and the field errors are returned alongside ErrCaseNotValid.
func (r *CaseRecord) Submit() (ValidationResult, error) {
	if r.Status == CaseStatusSubmitted {
		return ValidationResult{}, ErrCaseAlreadySubmitted
	}
	result := r.Validate()
	if !result.OK() {
		return result, ErrCaseNotValid
	}
	r.Status = CaseStatusSubmitted
	r.SubmittedAt = time.Now()
	return result, nil
}

// IsSubmitted reports whether the record has been handed off.
func (r *CaseRecord) IsSubmitted() bool {
	return r.Status == CaseStatusSubmitted
}
