package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/llm"
	"github.com/Rorical/RoriPersona/internal/models"
)

func newTestEvaluator(t *testing.T, model llm.Model) *Evaluator {
	t.Helper()
	evaluator, err := NewEvaluator(model, "judge instructions", EvaluatorOptions{Model: "judge"})
	require.NoError(t, err)
	return evaluator
}

func TestEvaluateAccepts(t *testing.T) {
	model := replies(verdictJSON(true, "fine"))
	evaluator := newTestEvaluator(t, model)

	history := []models.Message{models.UserMessage("who are you?"), models.AssistantMessage("I'm Ada.")}
	verdict, err := evaluator.Evaluate(context.Background(), "I studied maths.", "what did you study?", history)
	require.NoError(t, err)
	assert.Equal(t, Verdict{IsAcceptable: true, Feedback: "fine"}, verdict)

	req := model.request(0)
	assert.Equal(t, "judge", req.Model)
	require.NotNil(t, req.ResponseSchema)
	assert.Equal(t, "verdict", req.ResponseSchema.Name)
	assert.Empty(t, req.Tools)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "judge instructions", req.Messages[0].Content)

	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "User: who are you?")
	assert.Contains(t, prompt, "Agent: I'm Ada.")
	assert.Contains(t, prompt, "what did you study?")
	assert.Contains(t, prompt, "I studied maths.")
}

func TestEvaluateRejectionIsNotAnError(t *testing.T) {
	evaluator := newTestEvaluator(t, replies(verdictJSON(false, "too informal")))
	verdict, err := evaluator.Evaluate(context.Background(), "yo", "hi", nil)
	require.NoError(t, err)
	assert.False(t, verdict.IsAcceptable)
	assert.Equal(t, "too informal", verdict.Feedback)
}

func TestEvaluateAcceptsFencedJSON(t *testing.T) {
	body := `{"is_acceptable":true,"feedback":"ok"}`
	for _, fenced := range []string{
		"```json\n" + body + "\n```",
		"```JSON\n" + body + "\n```",
		"```Json \n" + body + "```",
		"```\n" + body + "\n```",
		"```" + body + "```",
	} {
		verdict, err := newTestEvaluator(t, replies(models.AssistantMessage(fenced))).Evaluate(context.Background(), "x", "y", nil)
		require.NoError(t, err, fenced)
		assert.True(t, verdict.IsAcceptable)
	}
}

func TestEvaluateParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "looks good to me",
		"missing field":  `{"is_acceptable":true}`,
		"wrong type":     `{"is_acceptable":"yes","feedback":"ok"}`,
		"extra property": `{"is_acceptable":true,"feedback":"ok","score":3}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			evaluator := newTestEvaluator(t, replies(models.AssistantMessage(raw)))
			_, err := evaluator.Evaluate(context.Background(), "x", "y", nil)

			var parseErr *EvaluationParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, raw, parseErr.Raw)
		})
	}
}

func TestEvaluateModelError(t *testing.T) {
	boom := errors.New("rate limited")
	model := &stubModel{respond: func(int, llm.Request) (models.Message, error) {
		return models.Message{}, boom
	}}

	_, err := newTestEvaluator(t, model).Evaluate(context.Background(), "x", "y", nil)
	var callErr *ModelCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "evaluate", callErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, model.calls())
}

func TestVerdictSchemaIsStrictCompatible(t *testing.T) {
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"is_acceptable": {"type": "boolean", "description": "Whether the latest response is acceptable"},
			"feedback": {"type": "string", "description": "What is wrong with the response, or why it is fine"}
		},
		"required": ["is_acceptable", "feedback"],
		"additionalProperties": false
	}`, string(verdictSchema))
}
