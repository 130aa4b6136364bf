package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coderFeedForwardAlg/tool-use/internal/config"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type transcriptsOptions struct {
	session    string
	status     string
	limit      int
	jsonOutput bool
}

func NewTranscriptsCommand(opts *rootOptions) *cobra.Command {
	transcriptsOpts := &transcriptsOptions{}

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List recorded conversations",
		Long: `List conversations recorded by chat and batch, newest first. Only the file and
redis transcript backends keep conversations between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscripts(cmd, opts, transcriptsOpts)
		},
	}

	cmd.Flags().StringVar(&transcriptsOpts.session, "session", "", "Only show conversations from this session")
	cmd.Flags().StringVar(&transcriptsOpts.status, "status", "", "Only show conversations with this status (completed or failed)")
	cmd.Flags().IntVar(&transcriptsOpts.limit, "limit", 20, "Maximum number of conversations to show (0 for all)")
	cmd.Flags().BoolVar(&transcriptsOpts.jsonOutput, "json", false, "Print conversations as JSON")

	return cmd
}

func runTranscripts(cmd *cobra.Command, opts *rootOptions, transcriptsOpts *transcriptsOptions) error {
	container, err := opts.Container(cmd)
	if err != nil {
		return err
	}

	backend := container.GetConfig().Transcript.Backend
	if backend == config.BackendMemory || backend == config.BackendNone {
		log.Warn().Str("backend", backend).Msg("Transcripts are not persisted with this backend")
	}

	conversations, err := container.GetStore().GetConversations(cmd.Context(), memory.Filter{
		SessionID: transcriptsOpts.session,
		Status:    types.ConversationStatus(transcriptsOpts.status),
		Limit:     transcriptsOpts.limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}

	out := cmd.OutOrStdout()

	if transcriptsOpts.jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(conversations)
	}

	if len(conversations) == 0 {
		fmt.Fprintln(out, "No transcripts found")
		return nil
	}

	for _, conv := range conversations {
		printConversation(out, conv)
	}

	return nil
}

func printConversation(out io.Writer, conv *types.Conversation) {
	mode, _ := conv.Metadata["mode"].(string)

	fmt.Fprintf(out, "%s  %s  %s  %s  session=%s\n",
		conv.ID,
		conv.CreatedAt.Format("2006-01-02 15:04:05"),
		conv.Status,
		mode,
		conv.SessionID,
	)

	for _, msg := range conv.Messages {
		if msg.Content != "" {
			fmt.Fprintf(out, "   %s: %s\n", msg.Role, msg.Content)
		}
		for _, call := range msg.ToolCalls {
			if call.Malformed() {
				fmt.Fprintf(out, "   %s: %s(%q)\n", msg.Role, call.Name, call.RawArguments)
				continue
			}
			fmt.Fprintf(out, "   %s: %s(%s)\n", msg.Role, call.Name, formatArguments(call.Arguments))
		}
		for _, result := range msg.ToolResults {
			prefix := ""
			if result.IsError {
				prefix = "error: "
			}
			fmt.Fprintf(out, "   %s: %s%s\n", msg.Role, prefix, result.Content)
		}
	}

	if errText, ok := conv.Metadata["error"].(string); ok {
		fmt.Fprintf(out, "   error: %s\n", errText)
	}
}

func formatArguments(arguments map[string]any) string {
	keys := make([]string, 0, len(arguments))
	for key := range arguments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, arguments[key]))
	}

	return strings.Join(parts, ", ")
}
