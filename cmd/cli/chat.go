package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewChatCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask arithmetic questions interactively",
		Long: `Read questions from standard input and let the model answer them with the
sum_as_string and minus tools. Type the exit keyword (default "exit") to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	return cmd
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	container, err := opts.Container(cmd)
	if err != nil {
		return err
	}

	interactive, err := container.NewInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := interactive.Run(cmd.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Interrupted")
			return nil
		}
		return err
	}

	return nil
}
