package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Provider implements the LanguageModel interface for OpenAI and
// OpenAI-compatible chat completion endpoints
type Provider struct {
	client *openai.Client

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// New creates a new OpenAI provider. An empty BaseURL keeps the public API.
func New(settings provider.Settings) *Provider {
	clientConfig := openai.DefaultConfig(settings.APIKey)

	if settings.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		RequestSettings: RequestSettings{
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		},
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	messages := p.convertMessages(req.Messages, req.System)
	tools := p.convertTools(req.Tools)

	log.Debug().Interface("requestSettings", p.RequestSettings).Int("tools", len(tools)).Msg("Request settings from openai provider")

	chatReq := openai.ChatCompletionRequest{
		Model:       p.RequestSettings.Model,
		Messages:    messages,
		Tools:       tools,
		Temperature: p.RequestSettings.Temperature,
	}

	if req.Temperature > 0 {
		chatReq.Temperature = req.Temperature
	}

	maxTokens := p.RequestSettings.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	if maxTokens > 0 {
		if isMaxCompletionTokensModel(p.RequestSettings.Model) {
			chatReq.MaxCompletionTokens = maxTokens
		} else {
			chatReq.MaxTokens = maxTokens
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	response := &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if resp.Usage.PromptTokensDetails != nil {
		response.Usage.CachedInputTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	for _, tc := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, toToolCall(tc))
	}

	return response, nil
}

// toToolCall keeps a call whose arguments are not valid JSON so the
// registry can reject it instead of the whole reply failing.
func toToolCall(tc openai.ToolCall) types.ToolCall {
	call := types.ToolCall{
		ID:   tc.ID,
		Name: tc.Function.Name,
	}

	args, err := decodeArguments(tc.Function.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("Model sent undecodable tool arguments")
		call.RawArguments = tc.Function.Arguments
		call.ArgumentsError = err.Error()
		return call
	}

	call.Arguments = args

	return call
}

// decodeArguments keeps integers exact by decoding numbers as json.Number.
func decodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	if err := decoder.Decode(&args); err != nil {
		return nil, err
	}

	return args, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("openai:%s", p.RequestSettings.Model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsTools:    true,
		MaxContextTokens: getMaxContextTokens(p.RequestSettings.Model),
		MaxOutputTokens:  getMaxOutputTokens(p.RequestSettings.Model),
	}
}

// convertMessages maps role and text only. Each turn is sent fresh, so
// tool calls and results never travel back to the API.
func (p *Provider) convertMessages(messages []types.Message, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return result
}

func (p *Provider) convertTools(tools []types.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}
	return result
}

var maxCompletionTokensModels = map[string]bool{
	"o1": true, "o1-mini": true, "o3": true, "o3-mini": true,
	"gpt-5": true, "gpt-5-mini": true, "gpt-5-nano": true,
}

func isMaxCompletionTokensModel(model string) bool {
	return maxCompletionTokensModels[model]
}

func getMaxContextTokens(model string) int {
	contextLimits := map[string]int{
		"gpt-5":         400000,
		"gpt-4o":        128000,
		"gpt-4o-mini":   128000,
		"gpt-4":         8192,
		"gpt-3.5-turbo": 16385,
	}
	if limit, ok := contextLimits[model]; ok {
		return limit
	}
	return 8192
}

func getMaxOutputTokens(model string) int {
	outputLimits := map[string]int{
		"gpt-5":         128000,
		"gpt-4o":        4096,
		"gpt-4o-mini":   16384,
		"gpt-4":         4096,
		"gpt-3.5-turbo": 4096,
	}
	if limit, ok := outputLimits[model]; ok {
		return limit
	}
	return 4096
}
