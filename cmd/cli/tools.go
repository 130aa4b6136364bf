package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewToolsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool descriptors sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.Container(cmd)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(container.GetRegistry().Descriptors(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal tools: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	}

	return cmd
}
