package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message roles for the triage transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Sentinel errors for Message validation.
var (
	ErrEmptyRole      = errors.New("role cannot be empty")
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrInvalidRole    = errors.New("invalid role")
	ErrZeroTimestamp  = errors.New("timestamp cannot be zero")
	ErrInvalidContent = errors.New("content cannot be whitespace only")
)

// Message is a single entry in the triage transcript: what the user typed or
// what the agent said back, with the role and creation time.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with the given role and content.
// The timestamp is set to the current time.
func NewMessage(role, content string) (*Message, error) {
	m := &Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) (*Message, error) {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) (*Message, error) {
	return NewMessage(RoleAssistant, content)
}

// Validate checks the message fields.
func (m *Message) Validate() error {
	if m.Role == "" {
		return ErrEmptyRole
	}
	if m.Role != RoleUser && m.Role != RoleAssistant && m.Role != RoleSystem {
		return ErrInvalidRole
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if strings.TrimSpace(m.Content) == "" {
		return ErrInvalidContent
	}
	if m.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// IsUser reports whether the message came from the user.
func (m *Message) IsUser() bool { return m.Role == RoleUser }

// IsAssistant reports whether the message came from the agent.
func (m *Message) IsAssistant() bool { return m.Role == RoleAssistant }

// String returns a short representation for logs.
func (m *Message) String() string {
	return fmt.Sprintf("Message[%s]: %s", m.Role, m.Content)
}
