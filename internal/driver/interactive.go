package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/coderFeedForwardAlg/tool-use/internal/transcript"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/tool"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
)

const DefaultExitKeyword = "exit"

// Interactive reads one line per turn and lets the model answer it by
// calling the registered tools. Every turn is independent: the model only
// ever sees the current line.
type Interactive struct {
	model       provider.LanguageModel
	registry    *tool.Registry
	recorder    *transcript.Recorder
	exitKeyword string
	in          io.Reader
	out         io.Writer
	usage       types.Usage
}

type InteractiveDependencies struct {
	Model       provider.LanguageModel
	Registry    *tool.Registry
	Recorder    *transcript.Recorder
	ExitKeyword string
	In          io.Reader
	Out         io.Writer
}

func NewInteractive(deps InteractiveDependencies) *Interactive {
	exitKeyword := strings.TrimSpace(deps.ExitKeyword)
	if exitKeyword == "" {
		exitKeyword = DefaultExitKeyword
	}

	return &Interactive{
		model:       deps.Model,
		registry:    deps.Registry,
		recorder:    deps.Recorder,
		exitKeyword: exitKeyword,
		in:          deps.In,
		out:         deps.Out,
	}
}

// Run loops until the exit keyword, end of input, a cancelled context or a
// failed model call. Tool failures are printed and do not stop the loop.
func (d *Interactive) Run(ctx context.Context) error {
	fmt.Fprintln(d.out, "Math Tools LLM")
	fmt.Fprintf(d.out, "Type '%s' to quit\n", d.exitKeyword)
	fmt.Fprintln(d.out, "Example: What is 5 plus 3?")

	done := make(chan struct{})
	defer close(done)

	lines, readErr := d.readLines(done)

	defer func() {
		log.Debug().
			Int("prompt_tokens", d.usage.PromptTokens).
			Int("completion_tokens", d.usage.CompletionTokens).
			Int("total_tokens", d.usage.TotalTokens).
			Msg("Session token usage")
	}()

	for {
		fmt.Fprint(d.out, "\nYou: ")

		var line string

		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-lines:
			if !ok {
				if err := *readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return nil
			}
			line = strings.TrimSpace(text)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if strings.EqualFold(line, d.exitKeyword) {
			return nil
		}

		if line == "" {
			continue
		}

		if err := d.Turn(ctx, line); err != nil {
			return err
		}
	}
}

// readLines scans input in its own goroutine so a blocked read never keeps
// Run from seeing cancellation. The error is set before lines is closed.
func (d *Interactive) readLines(done <-chan struct{}) (<-chan string, *error) {
	lines := make(chan string)
	var readErr error

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}

		readErr = scanner.Err()
	}()

	return lines, &readErr
}

// Usage returns the tokens spent by all turns so far.
func (d *Interactive) Usage() types.Usage {
	return d.usage
}

// Turn sends a single user line to the model and dispatches the tool calls
// in its reply.
func (d *Interactive) Turn(ctx context.Context, line string) error {
	userMessage := types.UserMessage(line)
	messages := []types.Message{userMessage}

	resp, err := d.model.Generate(ctx, provider.GenerateRequest{
		Messages: messages,
		Tools:    d.registry.Descriptors(),
	})
	if err != nil {
		err = fmt.Errorf("model call failed: %w", err)
		d.recorder.Record(ctx, messages, err)
		return err
	}

	d.usage = d.usage.Add(resp.Usage)

	log.Debug().
		Str("model", d.model.ID()).
		Int("tool_calls", len(resp.ToolCalls)).
		Str("finish_reason", resp.FinishReason).
		Msg("Model replied")

	messages = append(messages, types.Message{
		Role:      types.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Timestamp: userMessage.Timestamp,
	})

	if len(resp.ToolCalls) == 0 {
		if resp.Content != "" {
			fmt.Fprintln(d.out, resp.Content)
		}
		d.recorder.Record(ctx, messages, nil)
		return nil
	}

	results := make([]types.ToolResult, 0, len(resp.ToolCalls))

	for _, call := range resp.ToolCalls {
		result, err := d.registry.Dispatch(ctx, call)
		if err != nil {
			log.Debug().Err(err).Str("tool", call.Name).Msg("Tool call failed")
			fmt.Fprintf(d.out, "error: %v\n", err)
		} else {
			fmt.Fprintln(d.out, result.Content)
		}
		results = append(results, result)
	}

	messages = append(messages, types.Message{
		Role:        types.RoleTool,
		ToolResults: results,
		Timestamp:   userMessage.Timestamp,
	})

	d.recorder.Record(ctx, messages, nil)

	return nil
}
