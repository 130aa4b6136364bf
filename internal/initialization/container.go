package initialization

import (
	"context"
	"fmt"
	"io"

	"github.com/coderFeedForwardAlg/tool-use/internal/config"
	"github.com/coderFeedForwardAlg/tool-use/internal/driver"
	"github.com/coderFeedForwardAlg/tool-use/internal/tools"
	"github.com/coderFeedForwardAlg/tool-use/internal/transcript"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/tool"
	"github.com/rs/zerolog/log"
)

// Container holds the long-lived collaborators shared by the CLI commands.
// The model is built lazily so commands that never call it do not need
// credentials.
type Container struct {
	config   *config.Config
	registry *tool.Registry
	store    memory.Store
	model    provider.LanguageModel
}

type ContainerDependencies struct {
	Config *config.Config
	// Model replaces the configured provider when set
	Model provider.LanguageModel
	// Store replaces the configured transcript backend when set
	Store memory.Store
}

func NewContainer(ctx context.Context, deps ContainerDependencies) (*Container, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	registry, err := tools.NewRegistry()
	if err != nil {
		return nil, err
	}

	store := deps.Store
	if store == nil {
		store, err = transcript.NewStore(ctx, transcript.Config{
			Backend:  deps.Config.Transcript.Backend,
			Dir:      deps.Config.Transcript.Dir,
			RedisURL: deps.Config.Transcript.RedisURL,
			TTL:      deps.Config.Transcript.TTL,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Container{
		config:   deps.Config,
		registry: registry,
		store:    store,
		model:    deps.Model,
	}, nil
}

func (c *Container) GetConfig() *config.Config {
	return c.config
}

func (c *Container) GetRegistry() *tool.Registry {
	return c.registry
}

func (c *Container) GetStore() memory.Store {
	return c.store
}

// GetModel validates the model settings and builds the provider once.
func (c *Container) GetModel(ctx context.Context) (provider.LanguageModel, error) {
	if c.model != nil {
		return c.model, nil
	}

	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	model, err := NewModel(ctx, c.config.Provider, settingsFromConfig(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", c.config.Provider, err)
	}

	log.Debug().Str("model", model.ID()).Msg("Language model ready")

	c.model = model

	return model, nil
}

func (c *Container) NewRecorder(mode string) *transcript.Recorder {
	return transcript.NewRecorder(transcript.RecorderOpts{
		Store: c.store,
		Mode:  mode,
	})
}

func (c *Container) NewInteractive(ctx context.Context, in io.Reader, out io.Writer) (*driver.Interactive, error) {
	model, err := c.GetModel(ctx)
	if err != nil {
		return nil, err
	}

	if !model.Capabilities().SupportsTools {
		return nil, fmt.Errorf("model %s does not support tool calls", model.ID())
	}

	return driver.NewInteractive(driver.InteractiveDependencies{
		Model:       model,
		Registry:    c.registry,
		Recorder:    c.NewRecorder("chat"),
		ExitKeyword: c.config.ExitKeyword,
		In:          in,
		Out:         out,
	}), nil
}

// NewBatch defers building the model to the first question that needs it,
// so questions with two numbers are answered without provider settings.
func (c *Container) NewBatch(out io.Writer) *driver.Batch {
	return driver.NewBatch(driver.BatchDependencies{
		LoadModel: c.GetModel,
		Recorder:  c.NewRecorder("batch"),
		Out:       out,
	})
}
