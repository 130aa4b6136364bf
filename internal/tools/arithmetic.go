package tools

import (
	"context"
	"fmt"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/tool"
	"github.com/coderFeedForwardAlg/tool-use/pkg/arith"
	"github.com/rs/zerolog/log"
)

const (
	SumAsString = "sum_as_string"
	Minus       = "minus"
)

type operands struct {
	A int64 `json:"a" jsonschema:"The first number."`
	B int64 `json:"b" jsonschema:"The second number."`
}

// Arithmetic returns the tools bound to the model, in the order they are
// offered.
func Arithmetic() ([]tool.Tool, error) {
	sum, err := binary(SumAsString, "Returns the sum of two numbers as a string.", "+", arith.SumAsString)
	if err != nil {
		return nil, err
	}

	minus, err := binary(Minus, "Returns the difference of two numbers as a string.", "-", arith.SubtractAsString)
	if err != nil {
		return nil, err
	}

	return []tool.Tool{sum, minus}, nil
}

func NewRegistry() (*tool.Registry, error) {
	arithmetic, err := Arithmetic()
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()

	if err := registry.Register(arithmetic...); err != nil {
		return nil, fmt.Errorf("failed to register arithmetic tools: %w", err)
	}

	return registry, nil
}

func binary(name, description, op string, fn func(a, b int64) string) (tool.Tool, error) {
	return tool.Typed(name, description, func(ctx context.Context, in operands) (string, error) {
		result := fn(in.A, in.B)

		log.Info().Str("tool", name).Msgf("%d %s %d = %s", in.A, op, in.B, result)

		return result, nil
	})
}
