package entity

import (
	"errors"
	"testing"
)

func TestNewProblemStatement(t *testing.T) {
	p, err := NewProblemStatement("  printer not working  ")
	if err != nil {
		t.Fatalf("NewProblemStatement() error = %v", err)
	}
	if p.Initial != "printer not working" {
		t.Errorf("Initial = %q, want trimmed statement", p.Initial)
	}

	if _, err := NewProblemStatement("   "); !errors.Is(err, ErrEmptyStatement) {
		t.Errorf("NewProblemStatement(blank) error = %v, want ErrEmptyStatement", err)
	}
}

func TestProblemStatement_ComposedText(t *testing.T) {
	p, _ := NewProblemStatement("my PC is broken")

	// Without refinements the composed text is the initial statement
	if got := p.ComposedText(); got != "my PC is broken" {
		t.Errorf("ComposedText() = %q", got)
	}

	_ = p.AddRefinement("Which device?", "a desktop PC")
	_ = p.AddRefinement("When did it start?", "after a Windows update")

	want := "Initial problem: my PC is broken; additional details: a desktop PC, after a Windows update"
	if got := p.ComposedText(); got != want {
		t.Errorf("ComposedText() = %q, want %q", got, want)
	}
}

func TestProblemStatement_TextPrefersSummary(t *testing.T) {
	p, _ := NewProblemStatement("my PC is broken")
	_ = p.AddRefinement("Which device?", "a desktop PC")

	if got := p.Text(); got != p.ComposedText() {
		t.Errorf("Text() without summary = %q, want composed text", got)
	}

	if err := p.SetSummary("Desktop PC fails to boot after update"); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}
	if got := p.Text(); got != "Desktop PC fails to boot after update" {
		t.Errorf("Text() = %q, want summary", got)
	}
}

func TestProblemStatement_AddRefinement_Validation(t *testing.T) {
	p, _ := NewProblemStatement("vague")

	if err := p.AddRefinement("  ", "answer"); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("AddRefinement(blank question) error = %v, want ErrEmptyQuestion", err)
	}
	if err := p.AddRefinement("question", "  "); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("AddRefinement(blank answer) error = %v, want ErrEmptyAnswer", err)
	}
}

func TestProblemStatement_FrozenAfterFinalize(t *testing.T) {
	p, _ := NewProblemStatement("my PC is broken")
	p.Finalize()

	if err := p.AddRefinement("q", "a"); !errors.Is(err, ErrStatementFinal) {
		t.Errorf("AddRefinement() after Finalize error = %v, want ErrStatementFinal", err)
	}
	if err := p.SetSummary("new summary"); !errors.Is(err, ErrStatementFinal) {
		t.Errorf("SetSummary() after Finalize error = %v, want ErrStatementFinal", err)
	}
}
