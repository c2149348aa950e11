package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"support-triage-agent/internal/domain/port"
)

// CLIAdapter implements the UserInterface port using the command line.
type CLIAdapter struct {
	input   io.Reader
	output  io.Writer
	prompt  string
	colors  port.ColorScheme
	scanner *bufio.Scanner
}

// defaultColorScheme returns the default ANSI color scheme for CLI output.
func defaultColorScheme() port.ColorScheme {
	return port.ColorScheme{
		User:      "\x1b[94m", // Blue
		Assistant: "\x1b[93m", // Yellow
		System:    "\x1b[96m", // Cyan
		Error:     "\x1b[91m", // Red
		Prompt:    "\x1b[94m", // Blue
	}
}

// NewCLIAdapter creates a new CLIAdapter with default I/O (stdin/stdout).
func NewCLIAdapter() *CLIAdapter {
	return &CLIAdapter{
		input:  os.Stdin,
		output: os.Stdout,
		prompt: "You",
		colors: defaultColorScheme(),
	}
}

// NewCLIAdapterWithIO creates a new CLIAdapter with custom I/O for testing.
func NewCLIAdapterWithIO(input io.Reader, output io.Writer) *CLIAdapter {
	return &CLIAdapter{
		input:  input,
		output: output,
		prompt: "You",
		colors: defaultColorScheme(),
	}
}

// GetUserInput gets input from the user with context support.
func (c *CLIAdapter) GetUserInput(ctx context.Context) (string, bool) {
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.input)
	}

	select {
	case <-ctx.Done():
		return "", false
	default:
	}

	if _, err := fmt.Fprintf(c.output, "%s%s\x1b[0m: ", c.colors.Prompt, c.prompt); err != nil {
		return "", false
	}

	// EOF ends the session cleanly
	if !c.scanner.Scan() {
		return "", false
	}

	return c.scanner.Text(), true
}

// DisplayAssistantMessage displays an agent message.
func (c *CLIAdapter) DisplayAssistantMessage(message string) error {
	_, err := fmt.Fprintf(c.output, "%sAgent\x1b[0m: %s\n", c.colors.Assistant, message)
	return err
}

// DisplaySystemMessage displays a system message.
func (c *CLIAdapter) DisplaySystemMessage(message string) error {
	_, err := fmt.Fprintf(c.output, "%sSystem: %s\x1b[0m\n", c.colors.System, message)
	return err
}

// DisplayError displays an error message.
func (c *CLIAdapter) DisplayError(err error) error {
	if err == nil {
		return nil
	}

	_, writeErr := fmt.Fprintf(c.output, "%sError: %s\x1b[0m\n", c.colors.Error, err.Error())
	return writeErr
}

// SetPrompt sets the user input prompt.
func (c *CLIAdapter) SetPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return port.ErrInvalidPrompt
	}
	c.prompt = prompt
	return nil
}

// SetColorScheme sets the color scheme for the interface. Only non-empty
// fields override the current scheme.
func (c *CLIAdapter) SetColorScheme(scheme port.ColorScheme) {
	if scheme.User != "" {
		c.colors.User = scheme.User
	}
	if scheme.Assistant != "" {
		c.colors.Assistant = scheme.Assistant
	}
	if scheme.System != "" {
		c.colors.System = scheme.System
	}
	if scheme.Error != "" {
		c.colors.Error = scheme.Error
	}
	if scheme.Prompt != "" {
		c.colors.Prompt = scheme.Prompt
	}
}
