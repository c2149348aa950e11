package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"support-triage-agent/internal/application/dto"
	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
	"support-triage-agent/internal/domain/service"
)

// fakeAnalyst is a controllable TriageAnalyst for turn tests.
type fakeAnalyst struct {
	clear        bool
	clarityErr   error
	followups    []string
	followupErr  error
	summary      string
	summaryErr   error
	clarityCalls int
}

func (f *fakeAnalyst) EvaluateClarity(_ context.Context, _ string) (*port.ClarityEvaluation, error) {
	f.clarityCalls++
	if f.clarityErr != nil {
		return nil, f.clarityErr
	}
	return &port.ClarityEvaluation{Clear: f.clear}, nil
}

func (f *fakeAnalyst) GenerateFollowups(_ context.Context, _ string, _ []entity.RefinementPair) ([]string, error) {
	if f.followupErr != nil {
		return nil, f.followupErr
	}
	return f.followups, nil
}

func (f *fakeAnalyst) SynthesizeSummary(_ context.Context, _ string, _ []entity.Cause, _ []string) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

func turnCatalog() []entity.Cause {
	return []entity.Cause{
		{
			ID:       "psu-failure",
			Label:    "Power supply failure",
			Priority: entity.CausePriorityCritical,
			Keywords: []string{"no power", "won't turn on", "dead"},
			Actions:  []string{"Check the power cable", "Try a different outlet"},
		},
		{
			ID:       "driver-communication",
			Label:    "Driver communication problem",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"driver", "offline"},
			Actions:  []string{"Reinstall the device driver"},
		},
		{
			ID:       "clogged-head",
			Label:    "Clogged print head",
			Priority: entity.CausePriorityNormal,
			Keywords: []string{"streaks", "faded"},
			Actions:  []string{"Run the cleaning cycle"},
		},
	}
}

func newTurnUseCase(t *testing.T, analyst *fakeAnalyst) *TriageTurnUseCase {
	t.Helper()
	diagnosis, err := service.NewDiagnosisService(turnCatalog())
	if err != nil {
		t.Fatalf("NewDiagnosisService() error = %v", err)
	}
	actions, err := service.NewActionService(turnCatalog())
	if err != nil {
		t.Fatalf("NewActionService() error = %v", err)
	}
	uc, err := NewTriageTurnUseCase(analyst, diagnosis, actions, DefaultTurnConfig())
	if err != nil {
		t.Fatalf("NewTriageTurnUseCase() error = %v", err)
	}
	return uc
}

func newSession(t *testing.T) *entity.TriageState {
	t.Helper()
	state, err := entity.NewTriageState("session-turn-test")
	if err != nil {
		t.Fatalf("NewTriageState() error = %v", err)
	}
	return state
}

func mustTurn(t *testing.T, uc *TriageTurnUseCase, state *entity.TriageState, req dto.TurnRequest) *dto.TurnResponse {
	t.Helper()
	resp, err := uc.HandleTurn(context.Background(), state, req)
	if err != nil {
		t.Fatalf("HandleTurn() at %s error = %v", state.Step, err)
	}
	return resp
}

func TestHandleTurn_ClearStatementRunsDiagnosis(t *testing.T) {
	// Arrange: analyst says the statement is clear
	analyst := &fakeAnalyst{clear: true}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	// Act
	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "my laptop is dead, no power at all"})

	// Assert: straight to diagnosis confirmation with the critical cause
	// pre-selected
	if resp.Step != entity.StepDiagnosisConfirm {
		t.Errorf("Step = %v, want %v", resp.Step, entity.StepDiagnosisConfirm)
	}
	if resp.Expects != dto.InputKindSelection {
		t.Errorf("Expects = %v, want selection", resp.Expects)
	}
	var preselected []string
	for _, opt := range resp.Options {
		if opt.Preselected {
			preselected = append(preselected, opt.ID)
		}
	}
	if len(preselected) != 1 || preselected[0] != "psu-failure" {
		t.Errorf("preselected = %v, want [psu-failure]", preselected)
	}
}

func TestHandleTurn_AnalystFailureDefaultsToVague(t *testing.T) {
	// Clarity errors must route into refinement, never skip it
	analyst := &fakeAnalyst{
		clarityErr: port.ErrAnalystUnavailable,
		followups:  []string{"Which device has the problem?"},
	}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "something is broken"})

	if resp.Step != entity.StepRefinementQA {
		t.Errorf("Step = %v, want %v after analyst failure", resp.Step, entity.StepRefinementQA)
	}
	if resp.Expects != dto.InputKindText {
		t.Errorf("Expects = %v, want text", resp.Expects)
	}
	if len(resp.Messages) == 0 || !strings.Contains(resp.Messages[len(resp.Messages)-1], "Which device") {
		t.Errorf("Messages = %v, want trailing follow-up question", resp.Messages)
	}
}

func TestHandleTurn_NoFollowupsAcceptsStatement(t *testing.T) {
	// A vague statement with no generated questions is accepted as-is and
	// goes to summary confirmation.
	analyst := &fakeAnalyst{clear: false, followupErr: port.ErrAnalystUnavailable, summaryErr: port.ErrAnalystUnavailable}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "my PC is broken"})

	if resp.Step != entity.StepRefinementConfirm {
		t.Errorf("Step = %v, want %v", resp.Step, entity.StepRefinementConfirm)
	}
	if resp.Expects != dto.InputKindYesNo {
		t.Errorf("Expects = %v, want yes_no", resp.Expects)
	}
	// Summary synthesis failed, so the restatement is the composed text
	found := false
	for _, msg := range resp.Messages {
		if msg == "my PC is broken" {
			found = true
		}
	}
	if !found {
		t.Errorf("Messages = %v, want composed-text fallback restatement", resp.Messages)
	}
}

func TestHandleTurn_RefinementQuestionLoop(t *testing.T) {
	analyst := &fakeAnalyst{
		clear:     false,
		followups: []string{"Which device?", "When did it start?"},
	}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	// Vague statement queues the batch and asks the first question
	mustTurn(t, uc, state, dto.TurnRequest{Text: "my PC is broken"})

	// First answer: second question is asked, still QA
	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "a desktop PC"})
	if resp.Step != entity.StepRefinementQA {
		t.Fatalf("Step after first answer = %v, want %v", resp.Step, entity.StepRefinementQA)
	}
	if !strings.Contains(resp.Messages[len(resp.Messages)-1], "When did it start?") {
		t.Errorf("Messages = %v, want second question", resp.Messages)
	}

	// Second answer exhausts the batch; make the next clarity check pass so
	// refinement ends at summary confirmation.
	analyst.clear = true
	analyst.summary = "Desktop PC stopped working after an update"
	resp = mustTurn(t, uc, state, dto.TurnRequest{Text: "after a Windows update"})

	if resp.Step != entity.StepRefinementConfirm {
		t.Errorf("Step = %v, want %v", resp.Step, entity.StepRefinementConfirm)
	}
	if state.Problem.Text() != "Desktop PC stopped working after an update" {
		t.Errorf("Problem.Text() = %q, want synthesized summary", state.Problem.Text())
	}
}

func TestHandleTurn_RefinementRoundCap(t *testing.T) {
	// Analyst keeps saying vague and keeps producing questions; the round cap
	// must force refinement to finish anyway.
	analyst := &fakeAnalyst{
		clear:     false,
		followups: []string{"One more question?"},
		summary:   "capped summary",
	}
	diagnosis, _ := service.NewDiagnosisService(turnCatalog())
	actions, _ := service.NewActionService(turnCatalog())
	uc, err := NewTriageTurnUseCase(analyst, diagnosis, actions, TurnConfig{
		AnalystTimeout:      DefaultTurnConfig().AnalystTimeout,
		MaxRefinementRounds: 1,
	})
	if err != nil {
		t.Fatalf("NewTriageTurnUseCase() error = %v", err)
	}
	state := newSession(t)

	mustTurn(t, uc, state, dto.TurnRequest{Text: "something is off"})
	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "an answer"})

	if resp.Step != entity.StepRefinementConfirm {
		t.Errorf("Step = %v, want %v once the round cap is reached", resp.Step, entity.StepRefinementConfirm)
	}
	if state.RefinementRounds != 1 {
		t.Errorf("RefinementRounds = %d, want 1", state.RefinementRounds)
	}
}

func TestHandleTurn_SummaryConfirmPaths(t *testing.T) {
	t.Run("ambiguous answer re-prompts without error", func(t *testing.T) {
		analyst := &fakeAnalyst{clear: false, followupErr: port.ErrAnalystUnavailable, summary: "s"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "my PC is broken"})

		resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "maybe"})

		if resp.Step != entity.StepRefinementConfirm {
			t.Errorf("Step = %v, ambiguous answer must not advance", resp.Step)
		}
		if resp.Expects != dto.InputKindYesNo {
			t.Errorf("Expects = %v, want yes_no", resp.Expects)
		}
	})

	t.Run("yes runs diagnosis on the confirmed summary", func(t *testing.T) {
		analyst := &fakeAnalyst{clear: false, followupErr: port.ErrAnalystUnavailable, summary: "printer driver seems offline"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "printer trouble"})

		resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "yes"})

		if resp.Step != entity.StepDiagnosisConfirm {
			t.Errorf("Step = %v, want %v", resp.Step, entity.StepDiagnosisConfirm)
		}
		if state.Diagnosis == nil || state.Diagnosis.IsUnknown() || state.Diagnosis.Primary.ID != "driver-communication" {
			t.Errorf("Diagnosis = %+v, want driver-communication from the summary text", state.Diagnosis)
		}
	})

	t.Run("no returns to question loop", func(t *testing.T) {
		analyst := &fakeAnalyst{clear: false, followupErr: port.ErrAnalystUnavailable, summary: "wrong summary"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "printer trouble"})

		resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "no"})

		if resp.Step != entity.StepRefinementQA {
			t.Errorf("Step = %v, want %v", resp.Step, entity.StepRefinementQA)
		}
		// Follow-up generation failed, so the fixed correction question is used
		if !strings.Contains(resp.Messages[len(resp.Messages)-1], "summary got wrong") {
			t.Errorf("Messages = %v, want fixed correction question", resp.Messages)
		}
	})
}

func TestHandleTurn_UnknownDiagnosisOffersFullCatalog(t *testing.T) {
	analyst := &fakeAnalyst{clear: true}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "the coffee machine hums loudly"})

	if state.Diagnosis == nil || !state.Diagnosis.IsUnknown() {
		t.Fatal("want unknown diagnosis for unmatched statement")
	}
	if len(resp.Options) != len(turnCatalog()) {
		t.Errorf("Options = %d, want full catalog of %d", len(resp.Options), len(turnCatalog()))
	}
	for _, opt := range resp.Options {
		if opt.Preselected {
			t.Errorf("option %s preselected on unknown diagnosis", opt.ID)
		}
	}
}

func TestHandleTurn_SelectionPaths(t *testing.T) {
	setup := func(t *testing.T) (*TriageTurnUseCase, *entity.TriageState, *fakeAnalyst) {
		analyst := &fakeAnalyst{clear: true, summary: "synthesized case summary"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "prints have streaks and look faded"})
		return uc, state, analyst
	}

	t.Run("empty selection re-prompts with options", func(t *testing.T) {
		uc, state, _ := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{})

		if state.Step != entity.StepDiagnosisConfirm {
			t.Errorf("Step = %v, empty selection must not advance", state.Step)
		}
		if len(resp.Options) == 0 {
			t.Error("re-prompt must repeat the options")
		}
	})

	t.Run("unknown cause IDs re-prompt", func(t *testing.T) {
		uc, state, _ := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{Selection: []string{"clogged-head", "made-up"}})

		if state.Step != entity.StepDiagnosisConfirm {
			t.Errorf("Step = %v, unknown IDs must not advance", state.Step)
		}
		if !strings.Contains(resp.Messages[0], "made-up") {
			t.Errorf("Messages = %v, want the unknown ID named", resp.Messages)
		}
	})

	t.Run("confirmed selection yields plan and resolution check", func(t *testing.T) {
		uc, state, _ := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{
			Selection: []string{"clogged-head", "driver-communication"},
		})

		if resp.Step != entity.StepResolutionCheck {
			t.Errorf("Step = %v, want %v", resp.Step, entity.StepResolutionCheck)
		}
		if resp.Expects != dto.InputKindYesNo {
			t.Errorf("Expects = %v, want yes_no", resp.Expects)
		}
		// Catalog order: driver action before cleaning cycle
		want := []string{"Reinstall the device driver", "Run the cleaning cycle"}
		if len(resp.ActionPlan) != 2 || resp.ActionPlan[0] != want[0] || resp.ActionPlan[1] != want[1] {
			t.Errorf("ActionPlan = %v, want %v", resp.ActionPlan, want)
		}
		if state.CaseSummary != "synthesized case summary" {
			t.Errorf("CaseSummary = %q", state.CaseSummary)
		}
	})

	t.Run("none apply routes to escalation form", func(t *testing.T) {
		uc, state, _ := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{NoneApply: true})

		if resp.Step != entity.StepEscalationForm {
			t.Errorf("Step = %v, want %v", resp.Step, entity.StepEscalationForm)
		}
		if resp.Expects != dto.InputKindForm {
			t.Errorf("Expects = %v, want form", resp.Expects)
		}
		if state.Case == nil {
			t.Error("draft case record should be created on entering escalation")
		}
	})
}

func TestHandleTurn_ResolutionPaths(t *testing.T) {
	setup := func(t *testing.T) (*TriageTurnUseCase, *entity.TriageState) {
		analyst := &fakeAnalyst{clear: true, summary: "case summary"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "prints have streaks"})
		mustTurn(t, uc, state, dto.TurnRequest{Selection: []string{"clogged-head"}})
		return uc, state
	}

	t.Run("resolved closes the conversation", func(t *testing.T) {
		uc, state := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "yes"})

		if !resp.Closed || state.Resolution != entity.ResolutionSolved {
			t.Errorf("(Closed, Resolution) = (%v, %v), want (true, solved)", resp.Closed, state.Resolution)
		}
	})

	t.Run("unresolved enters the escalation form", func(t *testing.T) {
		uc, state := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "no"})

		if resp.Step != entity.StepEscalationForm || resp.Expects != dto.InputKindForm {
			t.Errorf("(Step, Expects) = (%v, %v), want escalation form", resp.Step, resp.Expects)
		}
		// Case summary synthesized at confirmation is reused
		if state.Case == nil || state.Case.Summary != "case summary" {
			t.Errorf("Case = %+v, want draft carrying the case summary", state.Case)
		}
	})
}

func TestHandleTurn_EscalationForm(t *testing.T) {
	setup := func(t *testing.T) (*TriageTurnUseCase, *entity.TriageState) {
		analyst := &fakeAnalyst{clear: true, summary: "case summary"}
		uc := newTurnUseCase(t, analyst)
		state := newSession(t)
		mustTurn(t, uc, state, dto.TurnRequest{Text: "prints have streaks"})
		mustTurn(t, uc, state, dto.TurnRequest{Selection: []string{"clogged-head"}})
		mustTurn(t, uc, state, dto.TurnRequest{Text: "no"})
		return uc, state
	}

	t.Run("missing form is a protocol error", func(t *testing.T) {
		uc, state := setup(t)

		_, err := uc.HandleTurn(context.Background(), state, dto.TurnRequest{Text: "here you go"})
		if !errors.Is(err, dto.ErrMissingForm) {
			t.Errorf("HandleTurn() error = %v, want ErrMissingForm", err)
		}
	})

	t.Run("invalid form returns field errors and stays open", func(t *testing.T) {
		uc, state := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{Form: &dto.EscalationForm{
			Name:    "Dana Smith",
			Email:   "not-an-email",
			Product: "LaserJet 400",
		}})

		if state.Step != entity.StepEscalationForm {
			t.Errorf("Step = %v, invalid form must not close the conversation", state.Step)
		}
		if len(resp.FieldErrors) != 1 || resp.FieldErrors[0].Field != entity.FieldContactEmail {
			t.Errorf("FieldErrors = %+v, want one contact_email error", resp.FieldErrors)
		}
		if resp.CaseID != "" {
			t.Error("CaseID set despite validation failure")
		}
	})

	t.Run("valid form submits the case and closes", func(t *testing.T) {
		uc, state := setup(t)

		resp := mustTurn(t, uc, state, dto.TurnRequest{Form: &dto.EscalationForm{
			Name:    "Dana Smith",
			Email:   "dana@example.com",
			Phone:   "+1 555 0100",
			Product: "LaserJet 400",
		}})

		if !resp.Closed || state.Resolution != entity.ResolutionEscalated {
			t.Errorf("(Closed, Resolution) = (%v, %v), want (true, escalated)", resp.Closed, state.Resolution)
		}
		if !strings.HasPrefix(resp.CaseID, "TKT-") {
			t.Errorf("CaseID = %q, want TKT- prefix", resp.CaseID)
		}
		if !state.Case.IsSubmitted() {
			t.Error("case record not submitted")
		}
	})
}

func TestHandleTurn_ProtocolErrors(t *testing.T) {
	analyst := &fakeAnalyst{clear: true}
	uc := newTurnUseCase(t, analyst)

	t.Run("nil state", func(t *testing.T) {
		_, err := uc.HandleTurn(context.Background(), nil, dto.TurnRequest{Text: "x"})
		if !errors.Is(err, ErrNilState) {
			t.Errorf("error = %v, want ErrNilState", err)
		}
	})

	t.Run("empty statement", func(t *testing.T) {
		state := newSession(t)
		_, err := uc.HandleTurn(context.Background(), state, dto.TurnRequest{Text: "   "})
		if !errors.Is(err, dto.ErrEmptyInput) {
			t.Errorf("error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("closed conversation rejects turns", func(t *testing.T) {
		state := newSession(t)
		state.Step = entity.StepClosed
		_, err := uc.HandleTurn(context.Background(), state, dto.TurnRequest{Text: "hello again"})
		if !errors.Is(err, entity.ErrInvalidTransition) {
			t.Errorf("error = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestHandleTurn_TranscriptMirrorsExchange(t *testing.T) {
	analyst := &fakeAnalyst{clear: true}
	uc := newTurnUseCase(t, analyst)
	state := newSession(t)

	resp := mustTurn(t, uc, state, dto.TurnRequest{Text: "my laptop is dead"})

	// One user message plus every assistant message
	want := 1 + len(resp.Messages)
	if got := state.Transcript.MessageCount(); got != want {
		t.Errorf("MessageCount() = %d, want %d", got, want)
	}
}
