package gemini

import (
	"context"
	"fmt"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Provider implements the LanguageModel interface for Google Gemini
type Provider struct {
	client *genai.Client

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
}

// New creates a new Gemini provider
func New(ctx context.Context, settings provider.Settings) (*Provider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	if settings.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	maxOutputTokens := int32(settings.MaxTokens)
	if maxOutputTokens <= 0 {
		maxOutputTokens = 1024
	}

	return &Provider{
		client: client,
		RequestSettings: RequestSettings{
			Model:           settings.Model,
			MaxOutputTokens: maxOutputTokens,
			Temperature:     settings.Temperature,
		},
	}, nil
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	config := p.buildConfig(req)
	contents := p.convertMessages(req.Messages)

	log.Debug().Interface("requestSettings", p.RequestSettings).Int("tools", len(req.Tools)).Msg("Request settings from gemini provider")

	resp, err := p.client.Models.GenerateContent(ctx, p.RequestSettings.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	return p.convertResponse(resp)
}

func (p *Provider) buildConfig(req provider.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: p.RequestSettings.MaxOutputTokens,
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	temperature := p.RequestSettings.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(temperature)
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	if tools := p.convertTools(req.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	return config
}

func (p *Provider) convertResponse(resp *genai.GenerateContentResponse) (*types.GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, types.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]

	response := &types.GenerateResponse{
		FinishReason: mapFinishReason(candidate.FinishReason),
		Model:        p.RequestSettings.Model,
	}

	if resp.UsageMetadata != nil {
		response.Usage = types.Usage{
			PromptTokens:      int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens:  int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:       int(resp.UsageMetadata.TotalTokenCount),
			CachedInputTokens: int(resp.UsageMetadata.CachedContentTokenCount),
		}
	}

	if candidate.Content == nil {
		return response, nil
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			response.Content += part.Text
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				// Gemini API does not always return call IDs
				id = uuid.New().String()
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			response.ToolCalls = append(response.ToolCalls, types.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}

	if len(response.ToolCalls) > 0 && response.FinishReason == types.FinishReasonStop {
		response.FinishReason = types.FinishReasonToolCalls
	}

	return response, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("gemini:%s", p.RequestSettings.Model)
}

// Capabilities returns the model's capabilities
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsTools:    true,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  getMaxOutputTokens(p.RequestSettings.Model),
	}
}

// convertMessages converts text messages to Gemini contents. System messages
// are dropped here; they travel as SystemInstruction.
func (p *Provider) convertMessages(messages []types.Message) []*genai.Content {
	var result []*genai.Content

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}

		role := genai.RoleUser
		switch msg.Role {
		case types.RoleSystem, types.RoleTool:
			continue
		case types.RoleAssistant:
			role = genai.RoleModel
		}

		result = append(result, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}

	return result
}

func (p *Provider) convertTools(tools []types.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		functionDeclarations = append(functionDeclarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertParametersToSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{{
		FunctionDeclarations: functionDeclarations,
	}}
}

// convertParametersToSchema converts a JSON schema map to genai.Schema
func convertParametersToSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return nil
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if typeVal, ok := params["type"].(string); ok {
		schema.Type = mapSchemaType(typeVal)
	}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, propVal := range props {
			if propMap, ok := propVal.(map[string]any); ok {
				schema.Properties[name] = convertParametersToSchema(propMap)
			}
		}
	}

	schema.Required = stringList(params["required"])
	schema.Enum = stringList(params["enum"])

	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = convertParametersToSchema(items)
	}

	return schema
}

func stringList(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		var result []string
		for _, v := range list {
			if s, ok := v.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

// mapSchemaType converts JSON schema type to genai.Type
func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// mapFinishReason maps Gemini finish reasons to standard format
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonStop
	}
}

func getMaxOutputTokens(model string) int {
	outputLimits := map[string]int{
		"gemini-2.5-pro":        65536,
		"gemini-2.5-flash":      65536,
		"gemini-2.0-flash":      8192,
		"gemini-2.0-flash-lite": 8192,
	}
	if limit, ok := outputLimits[model]; ok {
		return limit
	}
	return 8192
}
