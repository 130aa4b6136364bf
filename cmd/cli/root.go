package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coderFeedForwardAlg/tool-use/internal/config"
	"github.com/coderFeedForwardAlg/tool-use/internal/initialization"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	debug      bool
	configFile string

	container *initialization.Container
}

// Container loads the configuration on first use, after flags are parsed.
func (o *rootOptions) Container(cmd *cobra.Command) (*initialization.Container, error) {
	if o.container != nil {
		return o.container, nil
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: o.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}

	container, err := initialization.NewContainer(cmd.Context(), initialization.ContainerDependencies{
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	o.container = container

	return container, nil
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tooluse",
		Short: "Arithmetic tools for a chat model",
		Long: `tooluse binds two arithmetic tools, sum_as_string and minus, to a chat model.
Use "chat" to ask questions interactively or "batch" to answer a list of questions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: tooluse.yaml in ., ./config or $HOME/.tooluse)")
	rootCmd.PersistentFlags().String("provider", "", "Model provider: openai, anthropic or gemini")
	rootCmd.PersistentFlags().String("model", "", "Model name (default depends on the provider)")

	rootCmd.AddCommand(NewChatCommand(opts))
	rootCmd.AddCommand(NewBatchCommand(opts))
	rootCmd.AddCommand(NewToolsCommand(opts))
	rootCmd.AddCommand(NewTranscriptsCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCommand().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
