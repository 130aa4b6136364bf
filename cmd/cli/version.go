package cli

import (
	"fmt"

	"github.com/coderFeedForwardAlg/tool-use/internal/version"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tooluse %s\n", version.GetShortVersion())
			fmt.Fprintf(out, "   Go: %s\n", info.GoVersion)
			fmt.Fprintf(out, "   Platform: %s\n", info.Platform)
			if info.BuildDate != "" {
				fmt.Fprintf(out, "   Built: %s\n", info.BuildDate)
			}
		},
	}
}
