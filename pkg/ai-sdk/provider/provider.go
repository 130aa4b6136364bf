package provider

import (
	"context"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

// LanguageModel defines the interface that all LLM providers must implement
type LanguageModel interface {
	// Generate produces a complete response (blocking)
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// ID returns the unique identifier for this model
	ID() string

	// Capabilities returns the capabilities of this model
	Capabilities() Capabilities
}

// GenerateRequest contains all parameters for generating text
type GenerateRequest struct {
	// Messages sent to the model, oldest first
	Messages []types.Message `json:"messages"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Tools is a list of tools available to the model
	Tools []types.Tool `json:"tools,omitempty"`

	// Temperature overrides the provider default when > 0
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens overrides the provider default when > 0
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Capabilities describes what a model can do
type Capabilities struct {
	SupportsTools    bool `json:"supports_tools"`
	MaxContextTokens int  `json:"max_context_tokens"`
	MaxOutputTokens  int  `json:"max_output_tokens"`
}

// Settings carries the provider-independent knobs every implementation accepts
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}
