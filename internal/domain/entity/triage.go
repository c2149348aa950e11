package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Step identifies where a triage conversation currently is.
// The set is closed: every conversation moves through these steps and no
// others, following the transition table enforced by TriageState.
type Step string

const (
	StepInitialInput      Step = "initial_input"
	StepRefinement        Step = "refinement"
	StepRefinementQA      Step = "refinement_qa"
	StepRefinementConfirm Step = "refinement_confirm"
	StepDiagnosisConfirm  Step = "diagnosis_confirm"
	StepResolutionCheck   Step = "resolution_check"
	StepEscalationForm    Step = "escalation_form"
	StepClosed            Step = "closed"
)

// Sentinel errors for triage state transitions.
var (
	ErrEmptyTriageSessionID = errors.New("session ID cannot be empty")
	ErrInvalidTransition    = errors.New("invalid triage step transition")
	ErrInvalidStep          = errors.New("invalid triage step")
	ErrNoDiagnosis          = errors.New("diagnosis result must be populated before confirmation")
	ErrEmptySelection       = errors.New("at least one cause must be selected")
	ErrNoPendingQuestion    = errors.New("no pending follow-up question")
	ErrNoCaseRecord         = errors.New("case record has not been created")
	ErrConversationClosed   = errors.New("conversation is closed")
)

// stepTransitions is the static transition table. Every (from, to) pair not
// listed here is rejected with ErrInvalidTransition; StepClosed is terminal.
var stepTransitions = map[Step][]Step{
	StepInitialInput:      {StepRefinement, StepDiagnosisConfirm},
	StepRefinement:        {StepRefinementQA},
	StepRefinementQA:      {StepRefinementQA, StepRefinementConfirm},
	StepRefinementConfirm: {StepRefinementQA, StepDiagnosisConfirm},
	StepDiagnosisConfirm:  {StepResolutionCheck, StepEscalationForm},
	StepResolutionCheck:   {StepClosed, StepEscalationForm},
	StepEscalationForm:    {StepClosed},
	StepClosed:            {},
}

// ValidSteps returns all steps in conversational order.
func ValidSteps() []Step {
	return []Step{
		StepInitialInput,
		StepRefinement,
		StepRefinementQA,
		StepRefinementConfirm,
		StepDiagnosisConfirm,
		StepResolutionCheck,
		StepEscalationForm,
		StepClosed,
	}
}

// IsValidStep reports whether s is one of the closed step set.
func IsValidStep(s Step) bool {
	_, ok := stepTransitions[s]
	return ok
}

// DiagnosisResult is the outcome of running the diagnosis engine over a
// problem statement. A nil Primary is the distinguished "unknown" result:
// no catalog keyword matched and the user must pick causes explicitly.
type DiagnosisResult struct {
	Primary    *Cause  `json:"primary,omitempty"`
	Candidates []Cause `json:"candidates"`
}

// IsUnknown reports whether diagnosis found no matching cause.
func (r *DiagnosisResult) IsUnknown() bool {
	return r.Primary == nil
}

// Resolution records how a conversation ended.
type Resolution string

const (
	// ResolutionNone means the conversation is still in progress.
	ResolutionNone Resolution = ""
	// ResolutionSolved means the action plan fixed the issue.
	ResolutionSolved Resolution = "solved"
	// ResolutionEscalated means a case record was submitted to a human agent.
	ResolutionEscalated Resolution = "escalated"
)

// TriageState is the aggregate root for one triage conversation. It owns the
// current step, the accumulating problem statement, the diagnosis outcome,
// the confirmed causes and derived action plan, and the lazily created case
// record. All mutation goes through its methods, which enforce the transition
// table and the data dependencies between steps.
//
// A TriageState is owned by exactly one conversation; concurrent turns must
// be serialized by the caller.
type TriageState struct {
	SessionID        string            `json:"session_id"`
	Step             Step              `json:"step"`
	Problem          *ProblemStatement `json:"problem,omitempty"`
	PendingQuestions []string          `json:"pending_questions,omitempty"`
	RefinementRounds int               `json:"refinement_rounds"`
	Diagnosis        *DiagnosisResult  `json:"diagnosis,omitempty"`
	ConfirmedCauses  []Cause           `json:"confirmed_causes,omitempty"`
	ActionPlan       []string          `json:"action_plan,omitempty"`
	CaseSummary      string            `json:"case_summary,omitempty"`
	Case             *CaseRecord       `json:"case,omitempty"`
	Resolution       Resolution        `json:"resolution,omitempty"`
	Transcript       *Conversation     `json:"transcript"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewTriageState creates a conversation at the initial input step.
func NewTriageState(sessionID string) (*TriageState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrEmptyTriageSessionID
	}
	now := time.Now()
	return &TriageState{
		SessionID:  sessionID,
		Step:       StepInitialInput,
		Transcript: NewConversation(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanTransitionTo reports whether moving to the given step is legal from the
// current one without mutating anything.
func (s *TriageState) CanTransitionTo(next Step) bool {
	for _, allowed := range stepTransitions[s.Step] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the conversation has ended.
func (s *TriageState) IsTerminal() bool {
	return s.Step == StepClosed
}

// transitionTo validates and performs a step change.
func (s *TriageState) transitionTo(next Step) error {
	if !IsValidStep(next) {
		return ErrInvalidStep
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, next)
	}
	s.Step = next
	s.UpdatedAt = time.Now()
	return nil
}

// SubmitStatement records the user's initial problem description.
// Only legal at the initial input step; the step itself does not change until
// the clarity verdict routes the conversation via BeginRefinement or
// EnterDiagnosis.
func (s *TriageState) SubmitStatement(text string) error {
	if s.Step != StepInitialInput {
		return fmt.Errorf("%w: statement can only be submitted at %s", ErrInvalidTransition, StepInitialInput)
	}
	problem, err := NewProblemStatement(text)
	if err != nil {
		return err
	}
	s.Problem = problem
	s.UpdatedAt = time.Now()
	return nil
}

// BeginRefinement moves a vague statement into the refinement loop.
func (s *TriageState) BeginRefinement() error {
	if s.Problem == nil {
		return ErrEmptyStatement
	}
	return s.transitionTo(StepRefinement)
}

// QueueFollowups stores a batch of generated follow-up questions and enters
// the question/answer step. Legal from the refinement step (first batch) and
// from the QA step itself (a still-vague statement produced a fresh batch).
func (s *TriageState) QueueFollowups(questions []string) error {
	if err := s.transitionTo(StepRefinementQA); err != nil {
		return err
	}
	s.PendingQuestions = append([]string{}, questions...)
	s.RefinementRounds++
	return nil
}

// CurrentQuestion returns the follow-up question awaiting an answer.
func (s *TriageState) CurrentQuestion() (string, bool) {
	if s.Step != StepRefinementQA || len(s.PendingQuestions) == 0 {
		return "", false
	}
	return s.PendingQuestions[0], true
}

// AnswerQuestion records the user's answer to the current follow-up question
// and pops it from the queue.
func (s *TriageState) AnswerQuestion(answer string) error {
	if s.Step != StepRefinementQA {
		return fmt.Errorf("%w: answers are only accepted at %s", ErrInvalidTransition, StepRefinementQA)
	}
	if len(s.PendingQuestions) == 0 {
		return ErrNoPendingQuestion
	}
	question := s.PendingQuestions[0]
	if err := s.Problem.AddRefinement(question, answer); err != nil {
		return err
	}
	s.PendingQuestions = s.PendingQuestions[1:]
	s.UpdatedAt = time.Now()
	return nil
}

// HasPendingQuestions reports whether more follow-ups await answers.
func (s *TriageState) HasPendingQuestions() bool {
	return len(s.PendingQuestions) > 0
}

// FinishRefinement ends the question loop once all answers are collected and
// moves to summary confirmation. The synthesized summary is stored on the
// problem statement for the user to confirm.
func (s *TriageState) FinishRefinement(summary string) error {
	if s.Step != StepRefinementQA {
		return fmt.Errorf("%w: refinement can only finish from %s", ErrInvalidTransition, StepRefinementQA)
	}
	if len(s.PendingQuestions) > 0 {
		return fmt.Errorf("%w: %d follow-up questions still pending", ErrInvalidTransition, len(s.PendingQuestions))
	}
	if err := s.Problem.SetSummary(summary); err != nil {
		return err
	}
	return s.transitionTo(StepRefinementConfirm)
}

// RejectSummary handles a "no" at summary confirmation: the conversation
// returns to the QA step to collect more detail with a fresh question batch.
func (s *TriageState) RejectSummary(questions []string) error {
	if s.Step != StepRefinementConfirm {
		return fmt.Errorf("%w: summary can only be rejected at %s", ErrInvalidTransition, StepRefinementConfirm)
	}
	s.Problem.Summary = ""
	return s.QueueFollowups(questions)
}

// EnterDiagnosis stores the diagnosis result and advances to the
// confirmation step. Legal from initial input (clear statement) and from
// summary confirmation (user said "yes"). The problem statement is frozen
// here, and the confirmation selection is pre-populated with the primary
// cause when diagnosis found one.
func (s *TriageState) EnterDiagnosis(result DiagnosisResult) error {
	if s.Problem == nil {
		return ErrEmptyStatement
	}
	if err := s.transitionTo(StepDiagnosisConfirm); err != nil {
		return err
	}
	s.Problem.Finalize()
	s.Diagnosis = &result
	if result.Primary != nil {
		s.ConfirmedCauses = []Cause{*result.Primary}
	} else {
		s.ConfirmedCauses = nil
	}
	s.PendingQuestions = nil
	return nil
}

// ConfirmSelection records the user's edited cause selection together with
// the action plan and case summary derived from it, then advances to the
// resolution check. An empty selection is rejected and the step is unchanged;
// callers wanting the explicit "none apply" escape use SelectNoneApply.
func (s *TriageState) ConfirmSelection(causes []Cause, actionPlan []string, summary string) error {
	if s.Step != StepDiagnosisConfirm {
		return fmt.Errorf("%w: selection can only be confirmed at %s", ErrInvalidTransition, StepDiagnosisConfirm)
	}
	if len(causes) == 0 {
		return ErrEmptySelection
	}
	if err := s.transitionTo(StepResolutionCheck); err != nil {
		return err
	}
	s.ConfirmedCauses = append([]Cause{}, causes...)
	s.ActionPlan = append([]string{}, actionPlan...)
	s.CaseSummary = summary
	return nil
}

// SelectNoneApply handles the explicit "none of these apply" path: no cause
// is confirmed, the action plan is empty, and the conversation routes
// directly to the escalation form.
func (s *TriageState) SelectNoneApply() error {
	if s.Step != StepDiagnosisConfirm {
		return fmt.Errorf("%w: none-apply is only available at %s", ErrInvalidTransition, StepDiagnosisConfirm)
	}
	if err := s.transitionTo(StepEscalationForm); err != nil {
		return err
	}
	s.ConfirmedCauses = nil
	s.ActionPlan = []string{}
	return nil
}

// ReportResolved closes the conversation successfully: the suggested actions
// fixed the issue and no escalation is needed.
func (s *TriageState) ReportResolved() error {
	if s.Step != StepResolutionCheck {
		return fmt.Errorf("%w: resolution can only be reported at %s", ErrInvalidTransition, StepResolutionCheck)
	}
	if err := s.transitionTo(StepClosed); err != nil {
		return err
	}
	s.Resolution = ResolutionSolved
	return nil
}

// ReportUnresolved moves an unfixed issue to the escalation form.
func (s *TriageState) ReportUnresolved() error {
	if s.Step != StepResolutionCheck {
		return fmt.Errorf("%w: resolution can only be reported at %s", ErrInvalidTransition, StepResolutionCheck)
	}
	return s.transitionTo(StepEscalationForm)
}

// AttachCase stores the lazily created draft case record. Only legal at the
// escalation form step.
func (s *TriageState) AttachCase(record *CaseRecord) error {
	if s.Step != StepEscalationForm {
		return fmt.Errorf("%w: case records are only created at %s", ErrInvalidTransition, StepEscalationForm)
	}
	if record == nil {
		return ErrNoCaseRecord
	}
	s.Case = record
	s.UpdatedAt = time.Now()
	return nil
}

// CompleteEscalation closes the conversation after the case record has been
// validated and submitted. It refuses to close around an unsubmitted record,
// so the escalation form cannot be skipped.
func (s *TriageState) CompleteEscalation() error {
	if s.Step != StepEscalationForm {
		return fmt.Errorf("%w: escalation can only complete at %s", ErrInvalidTransition, StepEscalationForm)
	}
	if s.Case == nil {
		return ErrNoCaseRecord
	}
	if !s.Case.IsSubmitted() {
		return ErrCaseNotValid
	}
	if err := s.transitionTo(StepClosed); err != nil {
		return err
	}
	s.Resolution = ResolutionEscalated
	return nil
}

// AppendMessage adds a message to the session transcript.
func (s *TriageState) AppendMessage(role, content string) error {
	msg, err := NewMessage(role, content)
	if err != nil {
		return err
	}
	return s.Transcript.Append(*msg)
}
