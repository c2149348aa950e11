package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"support-triage-agent/internal/application/dto"
	appservice "support-triage-agent/internal/application/service"
	"support-triage-agent/internal/domain/port"
	"support-triage-agent/internal/infrastructure/config"
	signalhandler "support-triage-agent/internal/infrastructure/signal"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive triage session",
	Long: `Start an interactive triage session in the terminal.
Describe your hardware problem; the agent will ask follow-up questions,
suggest likely causes with remediation steps, and create a support case
when the problem cannot be resolved.

Commands inside the session:
  /new   discard the current conversation and start over
  exit   quit

Press Ctrl+C twice to exit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	executeChat = runChat
}

// inputResult holds the result from the async input goroutine
type inputResult struct {
	text string
	ok   bool
}

// chatLoop drives one terminal triage session turn by turn.
type chatLoop struct {
	triage    *appservice.TriageService
	ui        port.UserInterface
	handler   *signalhandler.InterruptHandler
	cfg       *config.Config
	sessionID string
}

// runChat executes the chat command
func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := GetConfig(cmd)

	container, err := config.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	loop := &chatLoop{
		triage:  container.TriageService(),
		ui:      container.UIAdapter(),
		handler: InterruptHandlerFromContext(ctx),
		cfg:     cfg,
	}

	_ = loop.ui.DisplaySystemMessage(cfg.WelcomeMessage)
	return loop.run(ctx)
}

// run starts a session and processes turns until the conversation closes or
// the user quits.
func (l *chatLoop) run(ctx context.Context) error {
	resp, err := l.startSession(ctx)
	if err != nil {
		return err
	}

	for {
		req, quit := l.collectInput(ctx, resp)
		if quit {
			fmt.Printf("\n%s\n", l.cfg.GoodbyeMessage)
			return nil
		}
		if req == nil {
			// Session reset requested
			resp, err = l.startSession(ctx)
			if err != nil {
				return err
			}
			continue
		}

		next, err := l.triage.HandleInput(ctx, l.sessionID, *req)
		if err != nil {
			_ = l.ui.DisplayError(err)
			continue
		}
		resp = next
		l.display(resp)

		if resp.Closed {
			// Closed conversations stay readable; start fresh for the next one
			_ = l.ui.DisplaySystemMessage("Conversation closed. Type anything to start a new one, or 'exit' to quit.")
			text, ok := l.readLine(ctx)
			if !ok || isQuit(text) {
				fmt.Printf("%s\n", l.cfg.GoodbyeMessage)
				return nil
			}
			resp, err = l.startSession(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// startSession opens a new conversation, replacing any current one.
func (l *chatLoop) startSession(ctx context.Context) (*dto.TurnResponse, error) {
	if l.sessionID != "" {
		_ = l.triage.EndSession(ctx, l.sessionID)
	}

	resp, err := l.triage.StartSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start triage session: %w", err)
	}
	l.sessionID = resp.SessionID
	l.display(resp)
	return resp, nil
}

// display renders the assistant messages and any selectable options.
func (l *chatLoop) display(resp *dto.TurnResponse) {
	for _, msg := range resp.Messages {
		_ = l.ui.DisplayAssistantMessage(msg)
	}
	for i, opt := range resp.Options {
		marker := " "
		if opt.Preselected {
			marker = "*"
		}
		_ = l.ui.DisplayAssistantMessage(fmt.Sprintf("  %s %d. %s", marker, i+1, opt.Label))
	}
	for _, fe := range resp.FieldErrors {
		_ = l.ui.DisplayError(fmt.Errorf("%s: %s", fe.Field, fe.Reason))
	}
}

// collectInput gathers the next TurnRequest according to what the
// conversation expects. A nil request with quit=false means the user asked
// for a session reset.
func (l *chatLoop) collectInput(ctx context.Context, resp *dto.TurnResponse) (*dto.TurnRequest, bool) {
	switch resp.Expects {
	case dto.InputKindSelection:
		return l.collectSelection(ctx, resp)
	case dto.InputKindForm:
		return l.collectForm(ctx)
	default:
		text, ok := l.readLine(ctx)
		if !ok || isQuit(text) {
			return nil, true
		}
		if text == "/new" {
			return nil, false
		}
		return &dto.TurnRequest{Text: text}, false
	}
}

// collectSelection reads cause numbers (comma separated) or "none".
func (l *chatLoop) collectSelection(ctx context.Context, resp *dto.TurnResponse) (*dto.TurnRequest, bool) {
	_ = l.ui.DisplaySystemMessage("Enter the matching numbers separated by commas, or 'none' if nothing applies.")

	for {
		text, ok := l.readLine(ctx)
		if !ok || isQuit(text) {
			return nil, true
		}
		if text == "/new" {
			return nil, false
		}
		if strings.EqualFold(strings.TrimSpace(text), "none") {
			return &dto.TurnRequest{NoneApply: true}, false
		}

		ids, err := parseSelection(text, resp.Options)
		if err != nil {
			_ = l.ui.DisplayError(err)
			continue
		}
		return &dto.TurnRequest{Selection: ids}, false
	}
}

// collectForm prompts for the escalation form fields one at a time.
func (l *chatLoop) collectForm(ctx context.Context) (*dto.TurnRequest, bool) {
	form := &dto.EscalationForm{}
	fields := []struct {
		prompt string
		target *string
	}{
		{"Your name", &form.Name},
		{"Contact email", &form.Email},
		{"Phone (optional, press Enter to skip)", &form.Phone},
		{"Product model", &form.Product},
	}

	for _, f := range fields {
		_ = l.ui.DisplaySystemMessage(f.prompt + ":")
		text, ok := l.readLine(ctx)
		if !ok || isQuit(text) {
			return nil, true
		}
		if text == "/new" {
			return nil, false
		}
		*f.target = strings.TrimSpace(text)
	}

	return &dto.TurnRequest{Form: form}, false
}

// readLine reads one line of input while staying responsive to Ctrl+C.
func (l *chatLoop) readLine(ctx context.Context) (string, bool) {
	var firstPressCh <-chan struct{}
	if l.handler != nil {
		firstPressCh = l.handler.FirstPress()
	}

	inputCh := make(chan inputResult, 1)
	go func() {
		text, ok := l.ui.GetUserInput(ctx)
		inputCh <- inputResult{text, ok}
	}()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-firstPressCh:
			fmt.Printf("\nPress Ctrl+C again to exit\n")
			firstPressCh = nil
		case result := <-inputCh:
			return result.text, result.ok
		}
	}
}

// parseSelection turns "1,3" style input into cause IDs.
func parseSelection(text string, options []dto.CauseOption) ([]string, error) {
	parts := strings.Split(text, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(options) {
			return nil, fmt.Errorf("'%s' is not a listed option number", part)
		}
		ids = append(ids, options[n-1].ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("enter at least one option number, or 'none'")
	}
	return ids, nil
}

func isQuit(text string) bool {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case "exit", "quit", ":q":
		return true
	}
	return false
}
