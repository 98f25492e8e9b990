package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// GenerateSchema derives a JSON schema from a Go struct. Fields without
// omitempty are required and unknown properties are rejected.
// It panics if the schema cannot be encoded, which only happens for
// programming errors caught at startup.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot encode schema for %T: %v", v, err))
	}
	return data
}

// New builds a tool from a typed handler. The parameter schema comes from T
// and validated arguments are decoded into T before fn is called.
func New[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) (Definition, Func) {
	def := Definition{
		Name:        name,
		Description: description,
		Parameters:  GenerateSchema[T](),
	}

	impl := func(ctx context.Context, args map[string]any) (any, error) {
		typed, err := decodeArguments[T](args)
		if err != nil {
			return nil, &ToolArgumentError{Tool: name, Problems: []string{err.Error()}}
		}
		return fn(ctx, typed)
	}

	return def, impl
}

func decodeArguments[T any](args map[string]any) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(args); err != nil {
		return out, err
	}
	return out, nil
}
