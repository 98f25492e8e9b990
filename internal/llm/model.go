// Package llm talks to the chat-completions endpoint. Model is the seam the
// conversation core depends on; OpenAI is the only implementation.
package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/tools"
)

// ErrNoChoices is returned when the endpoint answers without any choice
var ErrNoChoices = errors.New("model returned no choices")

// ResponseSchema forces the reply into a strict JSON schema
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}

type Request struct {
	Model          string // overrides the client default when set
	Messages       []models.Message
	Tools          []tools.Definition
	ResponseSchema *ResponseSchema
}

// Model produces the next assistant message for a transcript
type Model interface {
	Complete(ctx context.Context, req Request) (models.Message, error)
}
