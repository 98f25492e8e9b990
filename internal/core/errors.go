package core

import (
	"errors"
	"fmt"
)

// ErrEmptyReply means the model answered with neither text nor tool requests
var ErrEmptyReply = errors.New("model returned an empty reply")

// ToolLoopExceededError means the model kept asking for tools after the
// round limit was spent
type ToolLoopExceededError struct {
	Limit int
}

func (e *ToolLoopExceededError) Error() string {
	return fmt.Sprintf("model requested tools beyond the limit of %d rounds", e.Limit)
}

// ModelCallError wraps a failed call to the model endpoint. Op is "generate"
// or "evaluate".
type ModelCallError struct {
	Op  string
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed during %s: %v", e.Op, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// EvaluationParseError means the judge answered with something that is not a Verdict
type EvaluationParseError struct {
	Raw string
	Err error
}

func (e *EvaluationParseError) Error() string {
	return fmt.Sprintf("cannot parse verdict: %v", e.Err)
}

func (e *EvaluationParseError) Unwrap() error {
	return e.Err
}
