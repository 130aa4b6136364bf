package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a named function a model can call with JSON arguments.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args string) (string, error)
}

type funcTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args string) (string, error)
}

func (t *funcTool) Name() string               { return t.name }
func (t *funcTool) Description() string        { return t.description }
func (t *funcTool) Parameters() map[string]any { return t.parameters }

func (t *funcTool) Execute(ctx context.Context, args string) (string, error) {
	return t.fn(ctx, args)
}

// Define builds a tool from a hand-written parameter schema; fn receives the
// arguments as JSON.
func Define(name, description string, parameters map[string]any, fn func(ctx context.Context, args string) (string, error)) Tool {
	return &funcTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Typed builds a tool whose parameter schema is inferred from In: `json` tags
// name the properties and `jsonschema` tags describe them. Arguments are
// decoded into In, rejecting unknown fields, before fn runs. A decode failure
// is reported by the registry as invalid arguments.
func Typed[In any](name, description string, fn func(ctx context.Context, in In) (string, error)) (Tool, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("tool %s: failed to infer parameter schema: %w", name, err)
	}

	parameters, err := schemaMap(schema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return Define(name, description, parameters, func(ctx context.Context, args string) (string, error) {
		var in In

		decoder := json.NewDecoder(strings.NewReader(args))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(&in); err != nil {
			return "", &argumentsError{err: err}
		}

		return fn(ctx, in)
	}), nil
}

// schemaMap flattens a schema into the generic form the providers send.
func schemaMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameter schema: %w", err)
	}

	var parameters map[string]any
	if err := json.Unmarshal(data, &parameters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parameter schema: %w", err)
	}

	return parameters, nil
}

// argumentsError marks arguments that passed the schema but do not fit the
// tool's Go type, such as 5.0 for an int64.
type argumentsError struct {
	err error
}

func (e *argumentsError) Error() string { return e.err.Error() }
func (e *argumentsError) Unwrap() error { return e.err }

func ToTypesTool(t Tool) types.Tool {
	return types.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}
