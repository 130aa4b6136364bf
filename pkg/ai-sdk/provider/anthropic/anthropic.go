package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
)

// Anthropic requires max_tokens on every request
const defaultMaxTokens = 1024

// Provider implements the LanguageModel interface for Anthropic Claude
type Provider struct {
	client anthropic.Client
	model  string
	config Config
}

// Config holds Anthropic-specific configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// New creates a new Anthropic provider
func New(settings provider.Settings) *Provider {
	return NewWithConfig(Config{
		APIKey:      settings.APIKey,
		Model:       settings.Model,
		BaseURL:     settings.BaseURL,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
}

// NewWithConfig creates a new Anthropic provider with custom configuration.
// The SDK's automatic retries are disabled; each Generate is a single attempt.
func NewWithConfig(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
		config: config,
	}
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsTools:    true,
		MaxContextTokens: 200000,
		MaxOutputTokens:  getMaxOutputTokens(p.model),
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	messages, systemPrompt := p.convertMessages(req.Messages, req.System)
	tools := p.convertTools(req.Tools)

	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(p.model),
		Messages: messages,
	}

	if len(systemPrompt) > 0 {
		msgReq.System = systemPrompt
	}

	switch {
	case req.MaxTokens > 0:
		msgReq.MaxTokens = int64(req.MaxTokens)
	case p.config.MaxTokens > 0:
		msgReq.MaxTokens = int64(p.config.MaxTokens)
	default:
		msgReq.MaxTokens = defaultMaxTokens
	}

	if req.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(req.Temperature))
	} else if p.config.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(p.config.Temperature))
	}

	if len(tools) > 0 {
		msgReq.Tools = tools
	}

	log.Debug().Str("model", p.model).Int64("maxTokens", msgReq.MaxTokens).Int("tools", len(tools)).Msg("Request settings from anthropic provider")

	resp, err := p.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, types.ErrEmptyResponse
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: types.Usage{
			PromptTokens:      int(resp.Usage.InputTokens),
			CompletionTokens:  int(resp.Usage.OutputTokens),
			TotalTokens:       int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			CachedInputTokens: int(resp.Usage.CacheReadInputTokens),
		},
	}

	var textContent strings.Builder

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textContent.WriteString(block.Text)
		case "tool_use":
			response.ToolCalls = append(response.ToolCalls, toToolCall(block.ID, block.Name, block.Input))
		}
	}

	response.Content = textContent.String()

	return response, nil
}

// toToolCall keeps a call whose input is not a JSON object; the registry
// rejects it later.
func toToolCall(id, name string, input json.RawMessage) types.ToolCall {
	call := types.ToolCall{ID: id, Name: name}

	args, err := decodeInput(input)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("Model sent undecodable tool input")
		call.RawArguments = string(input)
		call.ArgumentsError = err.Error()
		return call
	}

	call.Arguments = args

	return call
}

func decodeInput(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	if err := decoder.Decode(&args); err != nil {
		return nil, err
	}

	return args, nil
}

// convertMessages splits out system text, which Anthropic takes separately.
// Only text content is sent; turns never carry tool history.
func (p *Provider) convertMessages(messages []types.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var systemTexts []string

	if systemPrompt != "" {
		systemTexts = append(systemTexts, systemPrompt)
	}

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}

		switch msg.Role {
		case types.RoleSystem:
			systemTexts = append(systemTexts, msg.Content)
		case types.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{Text: strings.Join(systemTexts, "\n\n")}}
	}

	return result, system
}

// convertTools splits each JSON schema into the typed input schema fields
func (p *Provider) convertTools(tools []types.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{}

		if properties, ok := tool.Parameters["properties"]; ok {
			inputSchema.Properties = properties
		}

		inputSchema.Required = requiredFields(tool.Parameters["required"])

		extra := make(map[string]any)
		for key, value := range tool.Parameters {
			if key != "type" && key != "properties" && key != "required" {
				extra[key] = value
			}
		}
		if len(extra) > 0 {
			inputSchema.ExtraFields = extra
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return result
}

func requiredFields(value any) []string {
	switch required := value.(type) {
	case []string:
		return required
	case []any:
		fields := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	}
	return nil
}

func mapStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonToolUse:
		return types.FinishReasonToolCalls
	case anthropic.StopReasonMaxTokens:
		return types.FinishReasonLength
	default:
		return types.FinishReasonStop
	}
}

func getMaxOutputTokens(model string) int {
	if strings.Contains(model, "claude-3-5") ||
		strings.Contains(model, "claude-3-7") ||
		strings.Contains(model, "claude-sonnet-4") ||
		strings.Contains(model, "claude-opus-4") {
		return 8192
	}
	return 4096
}
