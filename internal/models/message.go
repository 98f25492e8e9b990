package models

import (
	"errors"
	"fmt"
)

// Role identifies who authored a transcript message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

var (
	ErrUncorrelatedToolResult = errors.New("tool result does not answer a pending tool request")
	ErrPendingToolRequests    = errors.New("tool requests are still unanswered")
	ErrDuplicateToolRequest   = errors.New("tool request id is used twice")
)

// ToolRequest is one function call the model asked for
type ToolRequest struct {
	ID           string
	Name         string
	RawArguments string
}

// Message is a single entry in a Transcript.
// ToolRequests is only set on assistant messages, ToolRequestID only on tool messages.
type Message struct {
	Role          Role
	Content       string
	ToolRequests  []ToolRequest
	ToolRequestID string
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string, requests ...ToolRequest) Message {
	return Message{Role: RoleAssistant, Content: content, ToolRequests: requests}
}

func ToolResultMessage(requestID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolRequestID: requestID}
}

// HasToolRequests reports whether the message asks for tool execution
func (m Message) HasToolRequests() bool {
	return m.Role == RoleAssistant && len(m.ToolRequests) > 0
}

// DuplicateRequestID returns the first id that appears more than once
func DuplicateRequestID(requests []ToolRequest) (string, bool) {
	seen := make(map[string]bool, len(requests))
	for _, req := range requests {
		if seen[req.ID] {
			return req.ID, true
		}
		seen[req.ID] = true
	}
	return "", false
}

// Transcript is the ordered message history of a single turn.
// It is append-only and must not be shared between concurrent turns.
type Transcript struct {
	messages []Message
	pending  map[string]bool
}

// NewTranscript seeds a transcript with the system prompt, prior session
// history and the user's message.
func NewTranscript(system string, history []Message, user string) *Transcript {
	t := &Transcript{
		messages: make([]Message, 0, len(history)+2),
		pending:  make(map[string]bool),
	}
	t.messages = append(t.messages, SystemMessage(system))
	t.messages = append(t.messages, history...)
	t.messages = append(t.messages, UserMessage(user))
	return t
}

// Append adds a message, enforcing tool request/result correlation
func (t *Transcript) Append(m Message) error {
	if m.Role == RoleTool {
		if !t.pending[m.ToolRequestID] {
			return fmt.Errorf("%w: %q", ErrUncorrelatedToolResult, m.ToolRequestID)
		}
		delete(t.pending, m.ToolRequestID)
		t.messages = append(t.messages, m)
		return nil
	}

	if len(t.pending) > 0 {
		return ErrPendingToolRequests
	}

	if m.HasToolRequests() {
		if id, ok := DuplicateRequestID(m.ToolRequests); ok {
			return fmt.Errorf("%w: %q", ErrDuplicateToolRequest, id)
		}
		requests := make([]ToolRequest, len(m.ToolRequests))
		copy(requests, m.ToolRequests)
		m.ToolRequests = requests
		for _, req := range requests {
			t.pending[req.ID] = true
		}
	}
	t.messages = append(t.messages, m)
	return nil
}

// Messages returns a copy of the transcript
func (t *Transcript) Messages() []Message {
	result := make([]Message, len(t.messages))
	copy(result, t.messages)
	return result
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// PendingToolRequests returns how many tool requests still await a result
func (t *Transcript) PendingToolRequests() int {
	return len(t.pending)
}
