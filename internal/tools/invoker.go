package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Rorical/RoriPersona/internal/models"
)

// Result is the outcome of one tool invocation. Payload is what the model
// sees; Err keeps the classified failure for the caller and is never sent.
type Result struct {
	ToolRequestID string
	Payload       any
	OK            bool
	Err           error
}

// Content renders the payload as the tool-result message body
func (r Result) Content() string {
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Sprintf("%v", r.Payload)
	}
	return string(data)
}

// Invoker validates and executes tool requests against a Registry.
// Every failure is folded into a Result so the conversation can continue.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
}

type InvokerOption func(*Invoker)

// WithTimeout bounds each tool execution. Tools that ignore their context
// may still run to completion.
func WithTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

func NewInvoker(registry *Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{registry: registry}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke runs a single request at most once. It never returns an error and
// never panics.
func (inv *Invoker) Invoke(ctx context.Context, req models.ToolRequest) Result {
	logger := zerolog.Ctx(ctx).With().
		Str("tool", req.Name).
		Str("tool_request_id", req.ID).
		Logger()

	start := time.Now()
	result := inv.invoke(ctx, req)

	event := logger.Info()
	if !result.OK {
		event = logger.Warn().Err(result.Err)
	}
	event.
		Dur("duration", time.Since(start)).
		Bool("ok", result.OK).
		Int("input_size", len(req.RawArguments)).
		Int("output_size", len(result.Content())).
		Msg("tool executed")

	return result
}

func (inv *Invoker) invoke(ctx context.Context, req models.ToolRequest) Result {
	tool, exists := inv.registry.lookup(req.Name)
	if !exists {
		err := &UnknownToolError{Name: req.Name}
		return failure(req.ID, err, err.Error())
	}

	args, err := validateArguments(tool, req.RawArguments)
	if err != nil {
		return failure(req.ID, err, err.Error())
	}

	if err := ctx.Err(); err != nil {
		execErr := &ToolExecutionError{Tool: req.Name, Err: err}
		return failure(req.ID, execErr, fmt.Sprintf("tool %q was cancelled", req.Name))
	}

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	var (
		out     any
		callErr error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		out, callErr = tool.fn(callCtx, args)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		callErr = recovered.AsError()
	}

	if callErr != nil {
		var argErr *ToolArgumentError
		if errors.As(callErr, &argErr) {
			return failure(req.ID, argErr, argErr.Error())
		}
		execErr := &ToolExecutionError{Tool: req.Name, Err: callErr}
		return failure(req.ID, execErr, fmt.Sprintf("tool %q failed", req.Name))
	}

	return Result{
		ToolRequestID: req.ID,
		Payload:       out,
		OK:            true,
	}
}

func failure(requestID string, err error, message string) Result {
	return Result{
		ToolRequestID: requestID,
		Payload:       map[string]any{"error": message},
		OK:            false,
		Err:           err,
	}
}

// validateArguments decodes raw JSON and checks it against the tool schema
func validateArguments(tool registeredTool, raw string) (map[string]any, error) {
	name := tool.definition.Name
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		problem := "arguments must be a JSON object"
		if err != nil {
			problem = fmt.Sprintf("%s: %v", problem, err)
		}
		return nil, &ToolArgumentError{Tool: name, Problems: []string{problem}}
	}

	result, err := tool.schema.Validate(gojsonschema.NewBytesLoader([]byte(raw)))
	if err != nil {
		return nil, &ToolArgumentError{Tool: name, Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}
		return nil, &ToolArgumentError{Tool: name, Problems: problems}
	}

	return args, nil
}
