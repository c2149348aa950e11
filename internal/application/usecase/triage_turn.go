// Package usecase contains the application use cases that drive the triage
// state machine: turn handling with collaborator timeouts and fallbacks, and
// escalation handling for failed remediations.
package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"support-triage-agent/internal/application/dto"
	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
	"support-triage-agent/internal/domain/service"
)

// Sentinel errors for the turn use case.
var (
	ErrNilState        = errors.New("triage state cannot be nil")
	ErrNilAnalyst      = errors.New("triage analyst is required")
	ErrNilDiagnosis    = errors.New("diagnosis service is required")
	ErrNilActions      = errors.New("action service is required")
	ErrUnhandledStep   = errors.New("no turn handler for step")
)

// TurnConfig tunes collaborator behavior for the turn use case.
type TurnConfig struct {
	// AnalystTimeout bounds every collaborator call. On timeout the
	// documented fallback applies; the conversation never blocks on the
	// analyst.
	AnalystTimeout time.Duration

	// MaxRefinementRounds caps how many follow-up batches a conversation
	// may go through before the statement is accepted as-is.
	MaxRefinementRounds int
}

// DefaultTurnConfig returns the production defaults.
func DefaultTurnConfig() TurnConfig {
	return TurnConfig{
		AnalystTimeout:      15 * time.Second,
		MaxRefinementRounds: 3,
	}
}

// TriageTurnUseCase processes one user turn against a conversation's state.
// Each call evaluates exactly one transition: it validates the request
// against the current step, invokes the analyst and domain services where
// the step calls for them, mutates the state through its entity methods, and
// returns the assistant's reply.
//
// Analyst calls are time-boxed. On error or timeout: clarity defaults to
// vague (refinement is the safe direction), follow-up generation defaults to
// none (which ends the refinement loop), and summary synthesis falls back to
// a deterministic template.
type TriageTurnUseCase struct {
	analyst   port.TriageAnalyst
	diagnosis *service.DiagnosisService
	actions   *service.ActionService
	config    TurnConfig
	newCaseID func() string
}

// NewTriageTurnUseCase creates the turn use case.
func NewTriageTurnUseCase(
	analyst port.TriageAnalyst,
	diagnosis *service.DiagnosisService,
	actions *service.ActionService,
	config TurnConfig,
) (*TriageTurnUseCase, error) {
	if analyst == nil {
		return nil, ErrNilAnalyst
	}
	if diagnosis == nil {
		return nil, ErrNilDiagnosis
	}
	if actions == nil {
		return nil, ErrNilActions
	}
	if config.AnalystTimeout <= 0 {
		config.AnalystTimeout = DefaultTurnConfig().AnalystTimeout
	}
	if config.MaxRefinementRounds <= 0 {
		config.MaxRefinementRounds = DefaultTurnConfig().MaxRefinementRounds
	}
	return &TriageTurnUseCase{
		analyst:   analyst,
		diagnosis: diagnosis,
		actions:   actions,
		config:    config,
		newCaseID: newCaseID,
	}, nil
}

// newCaseID generates a ticket-style case identifier, e.g. "TKT-3FA85F64".
func newCaseID() string {
	id := uuid.New()
	return "TKT-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// HandleTurn processes one user input for the given conversation state.
// The returned response carries the assistant messages and what kind of
// input the next turn expects. Errors are protocol-level (wrong payload for
// the step, closed conversation); user-correctable problems such as an empty
// cause selection or an invalid form come back as response data instead.
func (uc *TriageTurnUseCase) HandleTurn(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if state.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidTransition, entity.ErrConversationClosed)
	}

	switch state.Step {
	case entity.StepInitialInput:
		return uc.handleStatement(ctx, state, req)
	case entity.StepRefinementQA:
		return uc.handleAnswer(ctx, state, req)
	case entity.StepRefinementConfirm:
		return uc.handleSummaryConfirm(ctx, state, req)
	case entity.StepDiagnosisConfirm:
		return uc.handleSelection(ctx, state, req)
	case entity.StepResolutionCheck:
		return uc.handleResolution(ctx, state, req)
	case entity.StepEscalationForm:
		return uc.handleEscalation(ctx, state, req)
	default:
		// StepRefinement is transient within a single turn and StepClosed is
		// filtered above, so landing here means corrupted state.
		return nil, fmt.Errorf("%w: %s", ErrUnhandledStep, state.Step)
	}
}

// handleStatement processes the initial problem description.
func (uc *TriageTurnUseCase) handleStatement(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, dto.ErrEmptyInput
	}
	if err := state.SubmitStatement(text); err != nil {
		return nil, err
	}
	_ = state.AppendMessage(entity.RoleUser, text)

	if uc.evaluateClarity(ctx, text) {
		return uc.runDiagnosis(state)
	}

	if err := state.BeginRefinement(); err != nil {
		return nil, err
	}
	questions := uc.generateFollowups(ctx, state)
	if err := state.QueueFollowups(questions); err != nil {
		return nil, err
	}
	if !state.HasPendingQuestions() {
		// No questions to ask; accept the statement as-is.
		return uc.finishRefinement(ctx, state)
	}

	question, _ := state.CurrentQuestion()
	return uc.respond(state, dto.InputKindText,
		"Thank you for the initial statement. To provide better support, I need a little more detail.",
		question,
	), nil
}

// handleAnswer records one follow-up answer and advances the question loop.
func (uc *TriageTurnUseCase) handleAnswer(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, dto.ErrEmptyInput
	}
	if err := state.AnswerQuestion(text); err != nil {
		return nil, err
	}
	_ = state.AppendMessage(entity.RoleUser, text)

	if state.HasPendingQuestions() {
		question, _ := state.CurrentQuestion()
		transition := "Thanks for the information. Next:"
		if len(state.Problem.Refinements) > 1 {
			transition = "I'm still trying to narrow this down. What about this:"
		}
		return uc.respond(state, dto.InputKindText, transition, question), nil
	}

	// Batch exhausted: re-evaluate the full refined statement.
	composed := state.Problem.ComposedText()
	if !uc.evaluateClarity(ctx, composed) && state.RefinementRounds < uc.config.MaxRefinementRounds {
		questions := uc.generateFollowups(ctx, state)
		if len(questions) > 0 {
			if err := state.QueueFollowups(questions); err != nil {
				return nil, err
			}
			question, _ := state.CurrentQuestion()
			return uc.respond(state, dto.InputKindText,
				"I appreciate the extra detail, but the overall picture still needs clarification.",
				question,
			), nil
		}
	}

	return uc.finishRefinement(ctx, state)
}

// finishRefinement synthesizes the refined statement and asks the user to
// confirm it before diagnosis.
func (uc *TriageTurnUseCase) finishRefinement(
	ctx context.Context,
	state *entity.TriageState,
) (*dto.TurnResponse, error) {
	summary := uc.restateProblem(ctx, state)
	if err := state.FinishRefinement(summary); err != nil {
		return nil, err
	}
	return uc.respond(state, dto.InputKindYesNo,
		"I've combined all the details. Here is my understanding of your issue:",
		summary,
		"Is this statement correct? Please answer yes or no.",
	), nil
}

// handleSummaryConfirm processes the yes/no answer at summary confirmation.
func (uc *TriageTurnUseCase) handleSummaryConfirm(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	answer, ok := parseYesNo(req.Text)
	if !ok {
		_ = state.AppendMessage(entity.RoleUser, strings.TrimSpace(req.Text))
		return uc.respond(state, dto.InputKindYesNo,
			"Please confirm by simply typing yes or no.",
		), nil
	}
	_ = state.AppendMessage(entity.RoleUser, req.Text)

	if answer {
		return uc.runDiagnosis(state)
	}

	questions := uc.generateFollowups(ctx, state)
	if len(questions) == 0 {
		questions = []string{"Please describe what the summary got wrong, or add the details I missed."}
	}
	if err := state.RejectSummary(questions); err != nil {
		return nil, err
	}
	question, _ := state.CurrentQuestion()
	return uc.respond(state, dto.InputKindText,
		"Apologies for the misunderstanding. Let's go over it again.",
		question,
	), nil
}

// runDiagnosis diagnoses the finalized statement and enters confirmation.
func (uc *TriageTurnUseCase) runDiagnosis(state *entity.TriageState) (*dto.TurnResponse, error) {
	result := uc.diagnosis.Diagnose(state.Problem.Text())
	if err := state.EnterDiagnosis(result); err != nil {
		return nil, err
	}

	var lead string
	if result.IsUnknown() {
		lead = "I could not match your issue against the known causes. " +
			"Please select every cause that applies from the list below, or tell me none apply."
	} else {
		lead = fmt.Sprintf(
			"Based on your statement, the most probable cause is %q. "+
				"Please review the selection and adjust it as needed.",
			result.Primary.Label,
		)
	}

	resp := uc.respond(state, dto.InputKindSelection, lead)
	resp.Options = uc.causeOptions(state)
	return resp, nil
}

// handleSelection processes the edited cause selection.
func (uc *TriageTurnUseCase) handleSelection(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	if req.NoneApply {
		if err := state.SelectNoneApply(); err != nil {
			return nil, err
		}
		_ = state.AppendMessage(entity.RoleUser, "None of the listed causes apply.")
		return uc.enterEscalation(ctx, state,
			"Understood. Since none of the known causes apply, this needs review by a human agent.",
		)
	}

	if len(req.Selection) == 0 {
		resp := uc.respond(state, dto.InputKindSelection,
			"At least one cause must be selected. Pick every cause that applies, or tell me none apply.",
		)
		resp.Options = uc.causeOptions(state)
		return resp, nil
	}

	causes, unknown := uc.actions.Resolve(req.Selection)
	if len(unknown) > 0 {
		resp := uc.respond(state, dto.InputKindSelection,
			fmt.Sprintf("These causes are not in the catalog: %s. Please choose from the list.",
				strings.Join(unknown, ", ")),
		)
		resp.Options = uc.causeOptions(state)
		return resp, nil
	}

	plan := uc.actions.Aggregate(causes)
	summary := uc.synthesizeSummary(ctx, state.Problem.Text(), causes, plan)
	if err := state.ConfirmSelection(causes, plan, summary); err != nil {
		return nil, err
	}
	_ = state.AppendMessage(entity.RoleUser, "Confirmed causes: "+joinCauseLabels(causes))

	messages := []string{"Diagnosis confirmed. Before escalating, please try these actions:"}
	for i, action := range plan {
		messages = append(messages, fmt.Sprintf("%d. %s", i+1, action))
	}
	messages = append(messages, "Did this resolve your issue? Please answer yes or no.")

	resp := uc.respond(state, dto.InputKindYesNo, messages...)
	resp.ActionPlan = append([]string{}, plan...)
	return resp, nil
}

// handleResolution processes the yes/no answer after the action plan.
func (uc *TriageTurnUseCase) handleResolution(
	ctx context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	answer, ok := parseYesNo(req.Text)
	if !ok {
		return uc.respond(state, dto.InputKindYesNo,
			"Please answer yes if the issue is resolved, or no to escalate it.",
		), nil
	}
	_ = state.AppendMessage(entity.RoleUser, req.Text)

	if answer {
		if err := state.ReportResolved(); err != nil {
			return nil, err
		}
		return uc.respond(state, dto.InputKindNone,
			"Great to hear the issue is resolved. Feel free to start a new conversation any time.",
		), nil
	}

	if err := state.ReportUnresolved(); err != nil {
		return nil, err
	}
	return uc.enterEscalation(ctx, state,
		"Sorry the suggested actions did not help. Let's create a formal case for our support team.",
	)
}

// enterEscalation lazily creates the draft case record and prompts for the
// escalation form.
func (uc *TriageTurnUseCase) enterEscalation(
	ctx context.Context,
	state *entity.TriageState,
	lead string,
) (*dto.TurnResponse, error) {
	summary := state.CaseSummary
	if summary == "" {
		summary = uc.synthesizeSummary(ctx, state.Problem.Text(), state.ConfirmedCauses, state.ActionPlan)
	}
	record, err := entity.NewCaseRecord(
		uc.newCaseID(),
		state.Problem.Text(),
		summary,
		state.ConfirmedCauses,
		state.ActionPlan,
	)
	if err != nil {
		return nil, err
	}
	if err := state.AttachCase(record); err != nil {
		return nil, err
	}

	return uc.respond(state, dto.InputKindForm,
		lead,
		"Please provide your full name, email address, and product model. A phone number is optional.",
	), nil
}

// handleEscalation validates and submits the escalation form.
func (uc *TriageTurnUseCase) handleEscalation(
	_ context.Context,
	state *entity.TriageState,
	req dto.TurnRequest,
) (*dto.TurnResponse, error) {
	if req.Form == nil {
		return nil, dto.ErrMissingForm
	}
	record := state.Case
	if record == nil {
		return nil, entity.ErrNoCaseRecord
	}

	if err := record.SetContact(req.Form.Name, req.Form.Email, req.Form.Phone); err != nil {
		return nil, err
	}
	if err := record.SetProduct(req.Form.Product); err != nil {
		return nil, err
	}

	result, err := record.Submit()
	if errors.Is(err, entity.ErrCaseNotValid) {
		resp := uc.respond(state, dto.InputKindForm,
			"The case form is incomplete. Please correct the highlighted fields and submit again.",
		)
		resp.FieldErrors = result.Errors
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	if err := state.CompleteEscalation(); err != nil {
		return nil, err
	}

	resp := uc.respond(state, dto.InputKindNone,
		"Case successfully created.",
		fmt.Sprintf("Case ID: %s", record.ID),
		fmt.Sprintf("Contact: %s (%s)", record.ContactName, record.ContactEmail),
		fmt.Sprintf("Issue: %s", record.Summary),
		"Your case has been submitted to a human agent who will contact you shortly.",
	)
	resp.CaseID = record.ID
	return resp, nil
}

// respond builds a response, mirroring every assistant message into the
// session transcript.
func (uc *TriageTurnUseCase) respond(
	state *entity.TriageState,
	expects dto.InputKind,
	messages ...string,
) *dto.TurnResponse {
	for _, msg := range messages {
		_ = state.AppendMessage(entity.RoleAssistant, msg)
	}
	return &dto.TurnResponse{
		SessionID: state.SessionID,
		Step:      state.Step,
		Messages:  messages,
		Expects:   expects,
		Closed:    state.IsTerminal(),
	}
}

// causeOptions lists every catalog cause as a selectable option, marking the
// current pre-selection.
func (uc *TriageTurnUseCase) causeOptions(state *entity.TriageState) []dto.CauseOption {
	preselected := make(map[string]bool, len(state.ConfirmedCauses))
	for _, c := range state.ConfirmedCauses {
		preselected[c.ID] = true
	}
	catalog := uc.diagnosis.Catalog()
	options := make([]dto.CauseOption, 0, len(catalog))
	for _, cause := range catalog {
		options = append(options, dto.CauseOption{
			ID:          cause.ID,
			Label:       cause.Label,
			Preselected: preselected[cause.ID],
		})
	}
	return options
}

// evaluateClarity asks the analyst whether the statement is clear enough to
// skip refinement. Timeout or failure defaults to vague: asking one more
// round of questions is safer than skipping it.
func (uc *TriageTurnUseCase) evaluateClarity(ctx context.Context, statement string) bool {
	cctx, cancel := context.WithTimeout(ctx, uc.config.AnalystTimeout)
	defer cancel()

	eval, err := uc.analyst.EvaluateClarity(cctx, statement)
	if err != nil || eval == nil {
		return false
	}
	return eval.Clear
}

// generateFollowups asks the analyst for follow-up questions. Timeout or
// failure yields none, which ends the refinement loop.
func (uc *TriageTurnUseCase) generateFollowups(ctx context.Context, state *entity.TriageState) []string {
	cctx, cancel := context.WithTimeout(ctx, uc.config.AnalystTimeout)
	defer cancel()

	questions, err := uc.analyst.GenerateFollowups(cctx, state.Problem.ComposedText(), state.Problem.Refinements)
	if err != nil {
		return nil
	}
	return questions
}

// restateProblem asks the analyst for a clean restatement of the refined
// problem. Failure falls back to the deterministic composed text.
func (uc *TriageTurnUseCase) restateProblem(ctx context.Context, state *entity.TriageState) string {
	summary := uc.synthesizeSummaryOrEmpty(ctx, state.Problem.ComposedText(), nil, nil)
	if summary == "" {
		return state.Problem.ComposedText()
	}
	return summary
}

// synthesizeSummary produces the case summary, falling back to the
// deterministic template on analyst failure.
func (uc *TriageTurnUseCase) synthesizeSummary(
	ctx context.Context,
	statement string,
	causes []entity.Cause,
	actions []string,
) string {
	if summary := uc.synthesizeSummaryOrEmpty(ctx, statement, causes, actions); summary != "" {
		return summary
	}
	return fallbackSummary(statement, causes, actions)
}

func (uc *TriageTurnUseCase) synthesizeSummaryOrEmpty(
	ctx context.Context,
	statement string,
	causes []entity.Cause,
	actions []string,
) string {
	cctx, cancel := context.WithTimeout(ctx, uc.config.AnalystTimeout)
	defer cancel()

	summary, err := uc.analyst.SynthesizeSummary(cctx, statement, causes, actions)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(summary)
}

// fallbackSummary is the deterministic summary template used when the
// analyst is unavailable.
func fallbackSummary(statement string, causes []entity.Cause, actions []string) string {
	return fmt.Sprintf(
		"Problem: %s; Causes: %s; Attempted actions: %s",
		statement,
		joinCauseLabels(causes),
		strings.Join(actions, ", "),
	)
}

func joinCauseLabels(causes []entity.Cause) string {
	labels := make([]string, 0, len(causes))
	for _, c := range causes {
		labels = append(labels, c.Label)
	}
	return strings.Join(labels, ", ")
}

// parseYesNo interprets a free-text yes/no reply.
func parseYesNo(text string) (answer, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yep", "correct", "yes it is", "yes, correct":
		return true, true
	case "no", "n", "nope", "incorrect", "no it's not", "no, incorrect":
		return false, true
	default:
		return false, false
	}
}
