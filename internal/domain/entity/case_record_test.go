package entity

import (
	"errors"
	"testing"
)

func draftRecord(t *testing.T) *CaseRecord {
	t.Helper()
	record, err := NewCaseRecord(
		"TKT-3FA85F64",
		"Printer prints blank pages",
		"Blank pages from a LaserJet, cartridge recently replaced",
		[]Cause{testCause("clogged-head")},
		[]string{"Run the cleaning cycle"},
	)
	if err != nil {
		t.Fatalf("NewCaseRecord() error = %v", err)
	}
	return record
}

func TestNewCaseRecord(t *testing.T) {
	record := draftRecord(t)

	if record.Status != CaseStatusDraft {
		t.Errorf("Status = %v, want draft", record.Status)
	}
	if record.IsSubmitted() {
		t.Error("IsSubmitted() = true for fresh draft")
	}

	if _, err := NewCaseRecord("  ", "p", "s", nil, nil); !errors.Is(err, ErrEmptyCaseID) {
		t.Errorf("NewCaseRecord(blank id) error = %v, want ErrEmptyCaseID", err)
	}
}

// TestCaseRecord_Validate_CollectsAllErrors checks that validation reports
// every missing field in one pass instead of stopping at the first.
func TestCaseRecord_Validate_CollectsAllErrors(t *testing.T) {
	record, _ := NewCaseRecord("TKT-0001", "problem", "", nil, nil)

	result := record.Validate()

	if result.OK() {
		t.Fatal("Validate() passed on an empty form")
	}
	fields := make(map[string]bool)
	for _, fe := range result.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{FieldContactName, FieldContactEmail, FieldProductModel, FieldSummary} {
		if !fields[want] {
			t.Errorf("Validate() missing field error for %s; got %+v", want, result.Errors)
		}
	}
}

func TestCaseRecord_Validate_EmailSyntax(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		wantOK bool
	}{
		{"plain address", "dana@example.com", true},
		{"display name form", "Dana Smith <dana@example.com>", true},
		{"missing at sign", "dana.example.com", false},
		{"missing domain", "dana@", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := draftRecord(t)
			_ = record.SetContact("Dana Smith", tt.email, "")
			_ = record.SetProduct("LaserJet 400")

			result := record.Validate()
			if result.OK() != tt.wantOK {
				t.Errorf("Validate() with email %q OK = %v, want %v (errors: %+v)",
					tt.email, result.OK(), tt.wantOK, result.Errors)
			}
		})
	}
}

func TestCaseRecord_PhoneIsOptional(t *testing.T) {
	record := draftRecord(t)
	_ = record.SetContact("Dana Smith", "dana@example.com", "")
	_ = record.SetProduct("LaserJet 400")

	if result := record.Validate(); !result.OK() {
		t.Errorf("Validate() without phone failed: %+v", result.Errors)
	}
}

func TestCaseRecord_Submit(t *testing.T) {
	// Arrange
	record := draftRecord(t)
	_ = record.SetContact("Dana Smith", "dana@example.com", "+1 555 0100")
	_ = record.SetProduct("LaserJet 400")

	// Act
	result, err := record.Submit()

	// Assert: one-way transition to submitted
	if err != nil {
		t.Fatalf("Submit() error = %v (field errors: %+v)", err, result.Errors)
	}
	if !record.IsSubmitted() {
		t.Error("IsSubmitted() = false after successful submit")
	}
	if record.SubmittedAt.IsZero() {
		t.Error("SubmittedAt not set")
	}

	// Submitted records are immutable
	if err := record.SetContact("x", "y@example.com", ""); !errors.Is(err, ErrCaseAlreadySubmitted) {
		t.Errorf("SetContact() after submit error = %v, want ErrCaseAlreadySubmitted", err)
	}
	if _, err := record.Submit(); !errors.Is(err, ErrCaseAlreadySubmitted) {
		t.Errorf("second Submit() error = %v, want ErrCaseAlreadySubmitted", err)
	}
}

func TestCaseRecord_Submit_InvalidStaysDraft(t *testing.T) {
	record := draftRecord(t)
	_ = record.SetContact("Dana Smith", "not-an-email", "")
	_ = record.SetProduct("LaserJet 400")

	result, err := record.Submit()

	if !errors.Is(err, ErrCaseNotValid) {
		t.Fatalf("Submit() error = %v, want ErrCaseNotValid", err)
	}
	if record.IsSubmitted() {
		t.Error("record transitioned despite validation failure")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != FieldContactEmail {
		t.Errorf("field errors = %+v, want one contact_email error", result.Errors)
	}
}
