// Package ai provides an Anthropic-backed implementation of the
// TriageAnalyst port. It keeps the three collaborator calls — clarity
// evaluation, follow-up generation, and summary synthesis — behind the
// domain interface so the triage core never touches the SDK.
//
// Clarity and follow-up responses are structured: the adapter forces a tool
// call whose input schema is generated from a Go struct, then unmarshals the
// tool input. Summary synthesis is plain text generation.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"

	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// Sentinel errors for the Anthropic analyst.
var (
	ErrModelNotSet     = errors.New("model must be set before calling the analyst")
	ErrEmptyStatement  = errors.New("statement cannot be empty")
	ErrNoStructuredOut = errors.New("analyst response carried no structured output")
)

const (
	clarityToolName  = "report_clarity"
	followupToolName = "report_followups"

	claritySystemPrompt = "You are a technical support triage system evaluating a user's " +
		"hardware problem statement. A statement is clear when it is complete and specific: " +
		"it names the device, describes the symptom, and says when the issue started. " +
		"A statement like 'my PC is broken' is vague. Report your verdict with the " +
		clarityToolName + " tool."

	followupSystemPrompt = "You are a technical support triage system. The user's problem " +
		"statement is still too vague to diagnose. Produce two or three short, specific " +
		"follow-up questions that would close the most important gaps. Do not repeat a " +
		"question whose answer is already given. Report them with the " + followupToolName + " tool."

	summarySystemPrompt = "You are an expert technical writer for a hardware support team. " +
		"Synthesize the given problem description, suspected causes, and attempted actions " +
		"into a single clear summary of a few sentences. Output only the summary paragraph."
)

// clarityReport is the structured clarity verdict.
type clarityReport struct {
	Clear bool `json:"clear" jsonschema_description:"True when the statement is detailed, specific and diagnosable without further questions"`
}

// followupReport is the structured follow-up question batch.
type followupReport struct {
	Questions []string `json:"questions" jsonschema_description:"Two to three specific follow-up questions for the user"`
}

// generateSchema builds an Anthropic tool input schema from a Go struct.
func generateSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

var (
	claritySchema  = generateSchema[clarityReport]()
	followupSchema = generateSchema[followupReport]()
)

// AnthropicAnalyst implements the TriageAnalyst port using Anthropic's API.
type AnthropicAnalyst struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicAnalyst creates an analyst using the given model. The API key
// is read from the environment by the SDK client.
func NewAnthropicAnalyst(model string, maxTokens int64) port.TriageAnalyst {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicAnalyst{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
	}
}

// EvaluateClarity judges whether the statement is specific enough to skip
// the refinement loop.
func (a *AnthropicAnalyst) EvaluateClarity(ctx context.Context, statement string) (*port.ClarityEvaluation, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, ErrEmptyStatement
	}

	input, err := a.callTool(ctx, claritySystemPrompt, clarityToolName,
		"Report whether the problem statement is clear enough to diagnose.", claritySchema,
		fmt.Sprintf("User's problem statement: %q", statement))
	if err != nil {
		return nil, err
	}

	var report clarityReport
	if err := json.Unmarshal(input, &report); err != nil {
		return nil, fmt.Errorf("failed to decode clarity report: %w", err)
	}
	return &port.ClarityEvaluation{Clear: report.Clear}, nil
}

// GenerateFollowups produces follow-up questions for a vague statement.
func (a *AnthropicAnalyst) GenerateFollowups(
	ctx context.Context,
	statement string,
	prior []entity.RefinementPair,
) ([]string, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, ErrEmptyStatement
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "User's problem statement: %q\n", statement)
	for _, pair := range prior {
		fmt.Fprintf(&prompt, "Already asked: %q — answered: %q\n", pair.Question, pair.Answer)
	}

	input, err := a.callTool(ctx, followupSystemPrompt, followupToolName,
		"Report the follow-up questions to ask the user.", followupSchema, prompt.String())
	if err != nil {
		return nil, err
	}

	var report followupReport
	if err := json.Unmarshal(input, &report); err != nil {
		return nil, fmt.Errorf("failed to decode follow-up report: %w", err)
	}

	questions := make([]string, 0, len(report.Questions))
	for _, q := range report.Questions {
		if strings.TrimSpace(q) != "" {
			questions = append(questions, strings.TrimSpace(q))
		}
	}
	return questions, nil
}

// SynthesizeSummary produces the human-readable case summary.
func (a *AnthropicAnalyst) SynthesizeSummary(
	ctx context.Context,
	statement string,
	causes []entity.Cause,
	actions []string,
) (string, error) {
	if strings.TrimSpace(statement) == "" {
		return "", ErrEmptyStatement
	}
	if a.model == "" {
		return "", ErrModelNotSet
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Problem description: %s\n", statement)
	if len(causes) > 0 {
		prompt.WriteString("Suspected causes:\n")
		for _, c := range causes {
			fmt.Fprintf(&prompt, "- %s\n", c.Label)
		}
	}
	if len(actions) > 0 {
		prompt.WriteString("Attempted actions:\n")
		for _, action := range actions {
			fmt.Fprintf(&prompt, "- %s\n", action)
		}
	}

	response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: summarySystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.String())),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", port.ErrAnalystUnavailable, err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	summary := strings.TrimSpace(text.String())
	if summary == "" {
		return "", ErrNoStructuredOut
	}
	return summary, nil
}

// callTool sends one user message and forces the named tool, returning the
// tool input JSON.
func (a *AnthropicAnalyst) callTool(
	ctx context.Context,
	system, toolName, toolDescription string,
	schema anthropic.ToolInputSchemaParam,
	userPrompt string,
) (json.RawMessage, error) {
	if a.model == "" {
		return nil, ErrModelNotSet
	}

	response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String(toolDescription),
				InputSchema: schema,
			},
		}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", port.ErrAnalystUnavailable, err)
	}

	for _, block := range response.Content {
		if block.Type == "tool_use" && block.Name == toolName && len(block.Input) > 0 {
			return json.RawMessage(block.Input), nil
		}
	}
	return nil, ErrNoStructuredOut
}
