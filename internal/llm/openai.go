package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/tools"
)

const DefaultModel = "gpt-4o-mini"

// OpenAI implements Model on top of an OpenAI-compatible chat-completions API
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// DefaultModelName is the model used when a request does not name one
func (o *OpenAI) DefaultModelName() string {
	return o.model
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (models.Message, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
		Tools:    toOpenAITools(req.Tools),
	}
	if req.ResponseSchema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.ResponseSchema.Name,
				Schema: req.ResponseSchema.Schema,
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return models.Message{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Message{}, ErrNoChoices
	}

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func toOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted := openai.ChatCompletionMessage{
			Content: msg.Content,
		}
		switch msg.Role {
		case models.RoleSystem:
			converted.Role = openai.ChatMessageRoleSystem
		case models.RoleUser:
			converted.Role = openai.ChatMessageRoleUser
		case models.RoleAssistant:
			converted.Role = openai.ChatMessageRoleAssistant
			for _, req := range msg.ToolRequests {
				converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
					ID:   req.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      req.Name,
						Arguments: req.RawArguments,
					},
				})
			}
		case models.RoleTool:
			converted.Role = openai.ChatMessageRoleTool
			converted.ToolCallID = msg.ToolRequestID
		}
		out = append(out, converted)
	}
	return out
}

func toOpenAITools(defs []tools.Definition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(defs))
	for i, def := range defs {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return out
}

// fromOpenAIMessage keeps tool calls in issue order. Some compatible servers
// omit call ids, so a missing one is generated to keep results correlated.
func fromOpenAIMessage(msg openai.ChatCompletionMessage) models.Message {
	requests := make([]models.ToolRequest, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		requests = append(requests, models.ToolRequest{
			ID:           id,
			Name:         call.Function.Name,
			RawArguments: call.Function.Arguments,
		})
	}
	return models.AssistantMessage(msg.Content, requests...)
}
