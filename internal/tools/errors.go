package tools

import (
	"fmt"
	"strings"
)

// UnknownToolError is returned when a name does not resolve in the registry
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// DuplicateToolError is returned when a name is registered twice
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// ToolArgumentError means the model sent arguments that do not match the
// tool's parameter schema. It is reported back to the model, never raised.
type ToolArgumentError struct {
	Tool     string
	Problems []string
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// ToolExecutionError wraps a failure raised by a tool implementation
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
