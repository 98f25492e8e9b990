package core

import (
	"context"
	"sync"

	"github.com/Rorical/RoriPersona/internal/llm"
	"github.com/Rorical/RoriPersona/internal/models"
)

// stubModel answers from a function and keeps every request it saw
type stubModel struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(call int, req llm.Request) (models.Message, error)
}

func (s *stubModel) Complete(ctx context.Context, req llm.Request) (models.Message, error) {
	s.mu.Lock()
	call := len(s.requests)
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(call, req)
}

func (s *stubModel) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubModel) request(i int) llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

// replies returns the given messages in order, repeating the last one
func replies(msgs ...models.Message) *stubModel {
	return &stubModel{respond: func(call int, req llm.Request) (models.Message, error) {
		if call >= len(msgs) {
			return msgs[len(msgs)-1], nil
		}
		return msgs[call], nil
	}}
}

func verdictJSON(ok bool, feedback string) models.Message {
	if ok {
		return models.AssistantMessage(`{"is_acceptable":true,"feedback":"` + feedback + `"}`)
	}
	return models.AssistantMessage(`{"is_acceptable":false,"feedback":"` + feedback + `"}`)
}
