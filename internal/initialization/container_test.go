package initialization

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/coderFeedForwardAlg/tool-use/internal/config"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory/inmemory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	ctx := context.Background()
	settings := provider.Settings{APIKey: "k", Model: "m"}

	tests := []struct {
		provider   string
		expectedID string
	}{
		{provider: config.ProviderOpenAI, expectedID: "openai:m"},
		{provider: config.ProviderAnthropic, expectedID: "anthropic:m"},
		{provider: config.ProviderGemini, expectedID: "gemini:m"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			model, err := NewModel(ctx, tt.provider, settings)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, model.ID())
		})
	}

	_, err := NewModel(ctx, "mistral", settings)
	assert.ErrorIs(t, err, types.ErrUnknownProvider)
}

func TestContainer_GetModelValidates(t *testing.T) {
	container, err := NewContainer(context.Background(), ContainerDependencies{
		Config: &config.Config{Provider: config.ProviderOpenAI, Model: "gpt-3.5-turbo", Transcript: config.TranscriptConfig{Backend: config.BackendNone}},
	})
	require.NoError(t, err)
	assert.IsType(t, &memory.NoOpStore{}, container.GetStore())

	_, err = container.GetModel(context.Background())
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestContainer_BatchWithoutProviderSettings(t *testing.T) {
	container, err := NewContainer(context.Background(), ContainerDependencies{
		Config: &config.Config{Provider: config.ProviderOpenAI, Model: "gpt-3.5-turbo"},
		Store:  inmemory.New(),
	})
	require.NoError(t, err)

	batch := container.NewBatch(&bytes.Buffer{})

	answers := batch.Run(context.Background(), []string{"Add 1 and 2", "What's the weather like today?"})
	require.Len(t, answers, 2)
	assert.Equal(t, "The sum of 1 and 2 is 3", answers[0].Text)
	assert.Contains(t, answers[1].Text, "An error occurred:")
	assert.Contains(t, answers[1].Text, "OPENAI_API_KEY")
}

func TestContainer_Drivers(t *testing.T) {
	store := inmemory.New()
	cfg := &config.Config{Provider: config.ProviderOpenAI, Model: "gpt-3.5-turbo", OpenAIAPIKey: "k", ExitKeyword: "quit"}

	container, err := NewContainer(context.Background(), ContainerDependencies{Config: cfg, Store: store})
	require.NoError(t, err)

	assert.Equal(t, []string{"sum_as_string", "minus"}, container.GetRegistry().Names())

	model, err := container.GetModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-3.5-turbo", model.ID())

	out := &bytes.Buffer{}
	interactive, err := container.NewInteractive(context.Background(), strings.NewReader("quit\n"), out)
	require.NoError(t, err)
	require.NoError(t, interactive.Run(context.Background()))
	assert.Contains(t, out.String(), "Type 'quit' to quit")

	batch := container.NewBatch(out)
	answers := batch.Run(context.Background(), []string{"Add 2 and 2"})
	require.Len(t, answers, 1)
	assert.Equal(t, "The sum of 2 and 2 is 4", answers[0].Text)

	recorded, err := store.GetConversations(context.Background(), memory.Filter{})
	require.NoError(t, err)
	assert.Len(t, recorded, 1)
}

type plainModel struct{}

func (m *plainModel) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	return &types.GenerateResponse{Content: "ok"}, nil
}

func (m *plainModel) ID() string {
	return "plain:test"
}

func (m *plainModel) Capabilities() provider.Capabilities {
	return provider.Capabilities{}
}

func TestContainer_InteractiveNeedsToolSupport(t *testing.T) {
	container, err := NewContainer(context.Background(), ContainerDependencies{
		Config: &config.Config{Provider: config.ProviderOpenAI},
		Model:  &plainModel{},
		Store:  inmemory.New(),
	})
	require.NoError(t, err)

	_, err = container.NewInteractive(context.Background(), strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorContains(t, err, "model plain:test does not support tool calls")

	batch := container.NewBatch(&bytes.Buffer{})
	assert.Equal(t, "ok", batch.Answer(context.Background(), "hello").Text)
}
