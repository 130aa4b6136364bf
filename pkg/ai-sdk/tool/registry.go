package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry maps tool names to tools and validates call arguments against
// each tool's parameter schema before executing it.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds tools in order. It fails on an empty or duplicate name or on a
// parameter schema that does not compile; nothing is registered in that case.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	compiled := make(map[string]*jsonschema.Schema, len(tools))

	for _, t := range tools {
		if t == nil {
			return errors.New("tool is nil")
		}

		name := t.Name()
		if name == "" {
			return errors.New("tool name is empty")
		}

		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("tool %s already registered", name)
		}

		if _, exists := compiled[name]; exists {
			return fmt.Errorf("tool %s already registered", name)
		}

		schema, err := compileSchema(name, t.Parameters())
		if err != nil {
			return fmt.Errorf("tool %s: invalid parameter schema: %w", name, err)
		}

		compiled[name] = schema
	}

	for _, t := range tools {
		r.tools[t.Name()] = t
		r.schemas[t.Name()] = compiled[t.Name()]
		r.order = append(r.order, t.Name())
	}

	return nil
}

func compileSchema(name string, parameters map[string]any) (*jsonschema.Schema, error) {
	if parameters == nil {
		parameters = map[string]any{"type": "object"}
	}

	data, err := json.Marshal(parameters)
	if err != nil {
		return nil, err
	}

	url := "tool://" + name + "/parameters.json"

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return compiler.Compile(url)
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Descriptors returns the tool descriptors sent to a model, in registration order.
func (r *Registry) Descriptors() []types.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]types.Tool, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, ToTypesTool(r.tools[name]))
	}

	return descriptors
}

// Dispatch runs the tool named by call. Unknown tools, bad arguments and tool
// failures are all returned as errors; the result then carries IsError and
// the error text so it can still be reported.
func (r *Registry) Dispatch(ctx context.Context, call types.ToolCall) (types.ToolResult, error) {
	result := types.ToolResult{ToolCallID: call.ID}

	r.mu.RLock()
	t, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()

	if !ok {
		return failed(result, fmt.Errorf("%w: %s", types.ErrToolNotFound, call.Name))
	}

	if call.Malformed() {
		return failed(result, fmt.Errorf("%w: %s: %s", types.ErrInvalidArguments, call.Name, call.ArgumentsError))
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return failed(result, fmt.Errorf("%w: %s: %v", types.ErrInvalidArguments, call.Name, err))
	}

	if err := validate(schema, argsJSON); err != nil {
		return failed(result, fmt.Errorf("%w: %s: %v", types.ErrInvalidArguments, call.Name, err))
	}

	log.Debug().Str("tool", call.Name).RawJSON("arguments", argsJSON).Msg("Executing tool")

	content, err := t.Execute(ctx, string(argsJSON))
	if err != nil {
		var argsErr *argumentsError
		if errors.As(err, &argsErr) {
			return failed(result, fmt.Errorf("%w: %s: %v", types.ErrInvalidArguments, call.Name, argsErr))
		}
		return failed(result, fmt.Errorf("%w: %s: %v", types.ErrToolExecutionFailed, call.Name, err))
	}

	result.Content = content

	return result, nil
}

func validate(schema *jsonschema.Schema, argsJSON []byte) error {
	if schema == nil {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(argsJSON))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return err
	}

	return schema.Validate(v)
}

func failed(result types.ToolResult, err error) (types.ToolResult, error) {
	result.Content = err.Error()
	result.IsError = true

	return result, err
}
