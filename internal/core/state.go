package core

import (
	"fmt"
	"sync"

	"github.com/Rorical/RoriPersona/internal/models"
)

// ChatState is the session state shared between the event loop and readers.
// history holds only final user and assistant text; tool traffic stays in
// the per-turn transcript.
type ChatState struct {
	mu           sync.RWMutex
	history      []models.Message
	lines        []models.Line
	isProcessing bool
	lastError    error
}

func NewChatState() *ChatState {
	return &ChatState{
		history: make([]models.Message, 0),
		lines:   make([]models.Line, 0),
	}
}

// History returns a copy of the session history
func (cs *ChatState) History() []models.Message {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]models.Message, len(cs.history))
	copy(result, cs.history)
	return result
}

// Lines returns everything that should be displayed, in order
func (cs *ChatState) Lines() []models.Line {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]models.Line, len(cs.lines))
	copy(result, cs.lines)
	return result
}

func (cs *ChatState) IsProcessing() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.isProcessing
}

func (cs *ChatState) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}

// AddProgramLine adds a line that is not part of the conversation
func (cs *ChatState) AddProgramLine(content string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lines = append(cs.lines, models.Line{Content: content, Type: models.ProgramLine})
}

func (cs *ChatState) StartProcessingWithUserMessage(content string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = true
	cs.lastError = nil
	cs.lines = append(cs.lines, models.Line{Content: content, Type: models.UserLine})
}

// FinishTurn commits a completed turn to history
func (cs *ChatState) FinishTurn(userMessage string, reply *FinalReply) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = false
	cs.lastError = nil
	cs.history = append(cs.history,
		models.UserMessage(userMessage),
		models.AssistantMessage(reply.Text),
	)
	cs.lines = append(cs.lines, models.Line{Content: reply.Text, Type: models.AssistantLine})
	if reply.Unrevised() {
		cs.lines = append(cs.lines, models.Line{Content: verdictNote(reply), Type: models.VerdictLine})
	}
}

// FinishProcessingWithError ends a failed turn. Nothing is added to history,
// so the user message can simply be sent again.
func (cs *ChatState) FinishProcessingWithError(err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = false
	cs.lastError = err
	cs.lines = append(cs.lines, models.Line{Content: err.Error(), Type: models.ErrorLine})
}

// Reset forgets the conversation but keeps program lines
func (cs *ChatState) Reset() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.history = cs.history[:0]
	cs.lastError = nil
	kept := cs.lines[:0]
	for _, line := range cs.lines {
		if line.Type == models.ProgramLine {
			kept = append(kept, line)
		}
	}
	cs.lines = kept
}

func verdictNote(reply *FinalReply) string {
	switch reply.Acceptance {
	case AcceptedByExhaustion:
		feedback := ""
		if n := len(reply.Verdicts); n > 0 {
			feedback = ": " + reply.Verdicts[n-1].Feedback
		}
		return fmt.Sprintf("unrevised after %s%s", pluralAttempts(reply.Attempts), feedback)
	case AcceptedUnjudged:
		return "unrevised: the evaluator response could not be read"
	default:
		return ""
	}
}

func pluralAttempts(n int) string {
	if n == 1 {
		return "1 attempt"
	}
	return fmt.Sprintf("%d attempts", n)
}
