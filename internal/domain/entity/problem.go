package entity

import (
	"errors"
	"strings"
)

// Sentinel errors for ProblemStatement mutations.
var (
	ErrEmptyStatement = errors.New("problem statement cannot be empty")
	ErrEmptyAnswer    = errors.New("refinement answer cannot be empty")
	ErrEmptyQuestion  = errors.New("refinement question cannot be empty")
	ErrStatementFinal = errors.New("problem statement is immutable once diagnosis is reached")
)

// RefinementPair is one follow-up question and the user's answer to it.
type RefinementPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ProblemStatement accumulates the user's description of the issue across the
// refinement loop. The initial statement and every (question, answer) pair are
// kept in order; once the conversation reaches diagnosis the statement is
// frozen and further mutation is rejected.
//
// The IsClear flag doubles as the freeze marker: it is set exactly when the
// conversation advances to diagnosis, either because the clarity collaborator
// reported "clear" or because the user confirmed the refined summary.
type ProblemStatement struct {
	// Initial is the user's first description of the problem.
	Initial string `json:"initial"`

	// Refinements holds the ordered follow-up question/answer pairs
	// collected while the statement was still considered vague.
	Refinements []RefinementPair `json:"refinements,omitempty"`

	// Summary is the synthesized restatement of the full problem, produced
	// when refinement ends. When set it supersedes the composed text.
	Summary string `json:"summary,omitempty"`

	// IsClear records the clarity verdict and freezes the statement.
	IsClear bool `json:"is_clear"`
}

// NewProblemStatement creates a statement from the user's initial input.
func NewProblemStatement(initial string) (*ProblemStatement, error) {
	initial = strings.TrimSpace(initial)
	if initial == "" {
		return nil, ErrEmptyStatement
	}
	return &ProblemStatement{Initial: initial}, nil
}

// AddRefinement records an answered follow-up question.
func (p *ProblemStatement) AddRefinement(question, answer string) error {
	if p.IsClear {
		return ErrStatementFinal
	}
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" {
		return ErrEmptyQuestion
	}
	if answer == "" {
		return ErrEmptyAnswer
	}
	p.Refinements = append(p.Refinements, RefinementPair{Question: question, Answer: answer})
	return nil
}

// SetSummary stores the synthesized restatement of the problem.
func (p *ProblemStatement) SetSummary(summary string) error {
	if p.IsClear {
		return ErrStatementFinal
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ErrEmptyStatement
	}
	p.Summary = summary
	return nil
}

// Finalize marks the statement clear and freezes it against further mutation.
func (p *ProblemStatement) Finalize() {
	p.IsClear = true
}

// Text returns the statement used for diagnosis and the case record:
// the synthesized summary when one exists, otherwise the composed text.
func (p *ProblemStatement) Text() string {
	if p.Summary != "" {
		return p.Summary
	}
	return p.ComposedText()
}

// ComposedText concatenates the initial statement with all refinement answers
// in collection order. This is the deterministic fallback used when summary
// synthesis is unavailable.
func (p *ProblemStatement) ComposedText() string {
	if len(p.Refinements) == 0 {
		return p.Initial
	}
	answers := make([]string, 0, len(p.Refinements))
	for _, r := range p.Refinements {
		answers = append(answers, r.Answer)
	}
	return "Initial problem: " + p.Initial + "; additional details: " + strings.Join(answers, ", ")
}
