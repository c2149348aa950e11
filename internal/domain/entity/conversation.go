package entity

import (
	"time"
)

// Conversation is the chronological transcript of one triage session.
// Messages are appended in order and never reordered; the transcript is what
// the host UI replays to the user and what the escalation receipt quotes from.
type Conversation struct {
	Messages  []Message `json:"messages"`
	StartedAt time.Time `json:"started_at"`
}

// NewConversation creates an empty transcript stamped with the current time.
func NewConversation() *Conversation {
	return &Conversation{
		Messages:  []Message{},
		StartedAt: time.Now(),
	}
}

// Append validates and adds a message to the transcript.
// A zero timestamp is filled in with the current time.
func (c *Conversation) Append(message Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	if err := message.Validate(); err != nil {
		return err
	}
	c.Messages = append(c.Messages, message)
	return nil
}

// GetMessages returns a defensive copy of the transcript.
func (c *Conversation) GetMessages() []Message {
	result := make([]Message, len(c.Messages))
	copy(result, c.Messages)
	return result
}

// LastMessage returns the most recent message, if any.
func (c *Conversation) LastMessage() (*Message, bool) {
	if len(c.Messages) == 0 {
		return nil, false
	}
	last := c.Messages[len(c.Messages)-1]
	return &last, true
}

// MessageCount returns the number of messages in the transcript.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty reports whether the transcript has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Duration returns the time elapsed since the conversation started.
func (c *Conversation) Duration() time.Duration {
	return time.Since(c.StartedAt)
}
