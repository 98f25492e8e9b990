package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rorical/RoriPersona/internal/llm"
	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/tools"
)

const (
	DefaultMaxToolRounds = 5
	DefaultCallTimeout   = 60 * time.Second
)

// DriverState is the position of a turn in the tool-dispatch loop
type DriverState int

const (
	AwaitingModel DriverState = iota
	DispatchingTools
	Done
)

func (s DriverState) String() string {
	switch s {
	case AwaitingModel:
		return "awaiting_model"
	case DispatchingTools:
		return "dispatching_tools"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("DriverState(%d)", int(s))
	}
}

type DriverOptions struct {
	MaxToolRounds int           // values below 1 become 1
	CallTimeout   time.Duration // per model call, 0 means DefaultCallTimeout
	Model         string        // optional model name override
}

// TurnResult is the outcome of one Driver.Run
type TurnResult struct {
	Reply      string
	State      DriverState
	Transcript []models.Message
	ToolRounds int
	ModelCalls int
}

// Driver runs a single turn: it calls the model, executes requested tools
// and repeats until the model answers without tool requests.
type Driver struct {
	model    llm.Model
	registry *tools.Registry
	invoker  *tools.Invoker
	opts     DriverOptions
}

func NewDriver(model llm.Model, registry *tools.Registry, invoker *tools.Invoker, opts DriverOptions) *Driver {
	if opts.MaxToolRounds < 1 {
		opts.MaxToolRounds = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Driver{
		model:    model,
		registry: registry,
		invoker:  invoker,
		opts:     opts,
	}
}

// Run executes one turn. The transcript is private to this call; history is
// copied into it and never modified.
func (d *Driver) Run(ctx context.Context, system string, history []models.Message, userMessage string) (*TurnResult, error) {
	logger := zerolog.Ctx(ctx)
	transcript := models.NewTranscript(system, history, userMessage)
	definitions := d.registry.Definitions()

	result := &TurnResult{State: AwaitingModel}

	for {
		switch result.State {
		case AwaitingModel:
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			msg, err := d.complete(ctx, transcript.Messages(), definitions)
			result.ModelCalls++
			if err != nil {
				return nil, &ModelCallError{Op: "generate", Err: err}
			}
			if err := checkResponse(msg); err != nil {
				logger.Warn().Err(err).Msg("malformed model response")
				return nil, &ModelCallError{Op: "generate", Err: err}
			}

			if !msg.HasToolRequests() {
				if err := transcript.Append(msg); err != nil {
					return nil, err
				}
				result.Reply = msg.Content
				result.State = Done
				continue
			}

			if result.ToolRounds >= d.opts.MaxToolRounds {
				logger.Warn().Int("limit", d.opts.MaxToolRounds).Msg("tool round limit exceeded")
				return nil, &ToolLoopExceededError{Limit: d.opts.MaxToolRounds}
			}
			if err := transcript.Append(msg); err != nil {
				return nil, err
			}
			result.State = DispatchingTools

		case DispatchingTools:
			last, _ := transcript.Last()
			result.ToolRounds++
			logger.Debug().
				Int("round", result.ToolRounds).
				Int("requests", len(last.ToolRequests)).
				Msg("dispatching tools")

			for _, req := range last.ToolRequests {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				res := d.invoker.Invoke(ctx, req)
				if err := transcript.Append(models.ToolResultMessage(req.ID, res.Content())); err != nil {
					return nil, err
				}
			}
			result.State = AwaitingModel

		case Done:
			result.Transcript = transcript.Messages()
			logger.Debug().
				Int("model_calls", result.ModelCalls).
				Int("tool_rounds", result.ToolRounds).
				Msg("turn complete")
			return result, nil
		}
	}
}

// checkResponse rejects replies that can be neither shown nor dispatched
func checkResponse(msg models.Message) error {
	if !msg.HasToolRequests() {
		if strings.TrimSpace(msg.Content) == "" {
			return ErrEmptyReply
		}
		return nil
	}
	if id, ok := models.DuplicateRequestID(msg.ToolRequests); ok {
		return fmt.Errorf("%w: %q", models.ErrDuplicateToolRequest, id)
	}
	return nil
}

func (d *Driver) complete(ctx context.Context, messages []models.Message, definitions []tools.Definition) (models.Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	return d.model.Complete(callCtx, llm.Request{
		Model:    d.opts.Model,
		Messages: messages,
		Tools:    definitions,
	})
}
