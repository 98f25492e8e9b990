package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Rorical/RoriPersona/internal/llm"
	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/tools"
)

// Verdict is the judge's decision on one candidate reply
type Verdict struct {
	IsAcceptable bool   `json:"is_acceptable" jsonschema_description:"Whether the latest response is acceptable"`
	Feedback     string `json:"feedback" jsonschema_description:"What is wrong with the response, or why it is fine"`
}

var verdictSchema = tools.GenerateSchema[Verdict]()

type EvaluatorOptions struct {
	Model       string        // judge model, empty uses the endpoint default
	CallTimeout time.Duration // 0 means DefaultCallTimeout
}

// Evaluator asks a judging model whether a reply is acceptable
type Evaluator struct {
	model        llm.Model
	instructions string
	validator    *gojsonschema.Schema
	opts         EvaluatorOptions
}

func NewEvaluator(model llm.Model, instructions string, opts EvaluatorOptions) (*Evaluator, error) {
	validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(verdictSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile verdict schema: %w", err)
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Evaluator{
		model:        model,
		instructions: instructions,
		validator:    validator,
		opts:         opts,
	}, nil
}

// Evaluate judges candidate as a reply to userMessage after history.
// A rejection is a valid Verdict, not an error.
func (e *Evaluator) Evaluate(ctx context.Context, candidate, userMessage string, history []models.Message) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	msg, err := e.model.Complete(callCtx, llm.Request{
		Model: e.opts.Model,
		Messages: []models.Message{
			models.SystemMessage(e.instructions),
			models.UserMessage(judgePrompt(candidate, userMessage, history)),
		},
		ResponseSchema: &llm.ResponseSchema{
			Name:   "verdict",
			Schema: verdictSchema,
		},
	})
	if err != nil {
		return Verdict{}, &ModelCallError{Op: "evaluate", Err: err}
	}

	verdict, err := e.parse(msg.Content)
	if err != nil {
		return Verdict{}, &EvaluationParseError{Raw: msg.Content, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Bool("acceptable", verdict.IsAcceptable).
		Str("feedback", verdict.Feedback).
		Msg("verdict received")
	return verdict, nil
}

func (e *Evaluator) parse(raw string) (Verdict, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Verdict{}, errors.New("empty response")
	}

	result, err := e.validator.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return Verdict{}, err
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}
		return Verdict{}, errors.New(strings.Join(problems, "; "))
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(body), &verdict); err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}

// stripCodeFence removes a markdown fence some models wrap JSON in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string (json, JSON, jsonc, ...) up to the first newline
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func judgePrompt(candidate, userMessage string, history []models.Message) string {
	var b strings.Builder
	b.WriteString("Here's the conversation between the User and the Agent:\n\n")
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", msg.Content)
		case models.RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(&b, "Agent: %s\n", msg.Content)
			}
		}
	}
	fmt.Fprintf(&b, "\nHere's the latest message from the User:\n\n%s\n\n", userMessage)
	fmt.Fprintf(&b, "Here's the latest response from the Agent:\n\n%s\n\n", candidate)
	b.WriteString("Please evaluate the response, replying with whether it is acceptable and your feedback.")
	return b.String()
}
