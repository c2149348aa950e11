package port

import (
	"context"
	"errors"
)

// ErrInvalidPrompt is returned when an empty prompt is set on the interface.
var ErrInvalidPrompt = errors.New("prompt cannot be empty")

// ColorScheme defines the ANSI colors for terminal output.
type ColorScheme struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	System    string `json:"system"`
	Error     string `json:"error"`
	Prompt    string `json:"prompt"`
}

// UserInterface is the inbound port for interactive triage sessions.
// The CLI adapter implements it over stdin/stdout; tests implement it with
// buffers.
type UserInterface interface {
	// GetUserInput reads one line of user input. The boolean is false when
	// input is exhausted or the context was cancelled.
	GetUserInput(ctx context.Context) (string, bool)

	// DisplayAssistantMessage shows an agent message to the user.
	DisplayAssistantMessage(message string) error

	// DisplaySystemMessage shows an out-of-band notice (session started,
	// shutdown, and similar).
	DisplaySystemMessage(message string) error

	// DisplayError shows an error to the user.
	DisplayError(err error) error

	// SetPrompt sets the text printed before reading user input.
	SetPrompt(prompt string) error
}
