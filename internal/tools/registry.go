package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Func is the implementation behind a tool. args has already been
// validated against the tool's parameter schema.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Definition advertises a tool to the model
type Definition struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON schema of the argument object
}

func (d Definition) clone() Definition {
	params := make(json.RawMessage, len(d.Parameters))
	copy(params, d.Parameters)
	d.Parameters = params
	return d
}

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)

type registeredTool struct {
	definition Definition
	schema     *gojsonschema.Schema
	fn         Func
}

// Registry maps tool names to their implementation and schema.
// It is filled once at startup and only read afterwards, so it does no locking.
type Registry struct {
	tools map[string]registeredTool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool. The parameter schema is compiled here so that
// broken schemas fail at startup instead of mid-conversation.
func (r *Registry) Register(def Definition, fn Func) error {
	if def.Name == "" {
		return errors.New("tool name is empty")
	}
	if fn == nil {
		return fmt.Errorf("tool %q has no implementation", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}

	if len(def.Parameters) == 0 {
		def.Parameters = emptyObjectSchema
	}
	def = def.clone()

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.Parameters))
	if err != nil {
		return fmt.Errorf("tool %q has an invalid parameter schema: %w", def.Name, err)
	}

	r.tools[def.Name] = registeredTool{
		definition: def,
		schema:     schema,
		fn:         fn,
	}
	return nil
}

// Resolve retrieves a tool implementation by name
func (r *Registry) Resolve(name string) (Func, error) {
	tool, exists := r.tools[name]
	if !exists {
		return nil, &UnknownToolError{Name: name}
	}
	return tool.fn, nil
}

func (r *Registry) lookup(name string) (registeredTool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// Definitions returns copies of all registered definitions, sorted by name
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.definition.clone())
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

func (r *Registry) Len() int {
	return len(r.tools)
}
