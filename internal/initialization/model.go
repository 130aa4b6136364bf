package initialization

import (
	"context"
	"fmt"

	"github.com/coderFeedForwardAlg/tool-use/internal/config"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider/anthropic"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider/gemini"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider/openai"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

// NewModel builds the language model named by providerName.
func NewModel(ctx context.Context, providerName string, settings provider.Settings) (provider.LanguageModel, error) {
	switch providerName {
	case config.ProviderOpenAI:
		return openai.New(settings), nil
	case config.ProviderAnthropic:
		return anthropic.New(settings), nil
	case config.ProviderGemini:
		model, err := gemini.New(ctx, settings)
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, providerName)
	}
}

func settingsFromConfig(cfg *config.Config) provider.Settings {
	return provider.Settings{
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.BaseURL(),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}
