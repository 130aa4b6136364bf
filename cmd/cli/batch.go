package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/coderFeedForwardAlg/tool-use/internal/driver"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type batchOptions struct {
	questions     []string
	questionsFile string
	jsonOutput    bool
}

func NewBatchCommand(opts *rootOptions) *cobra.Command {
	batchOpts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer a list of addition questions",
		Long: `Answer each question by extracting its first two numbers and adding them.
Questions without two numbers are sent to the model, and its reply is searched
for numbers the same way. Without --question or --questions-file a built-in
list is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, batchOpts)
		},
	}

	cmd.Flags().StringArrayVarP(&batchOpts.questions, "question", "q", nil, "Question to answer (repeatable)")
	cmd.Flags().StringVar(&batchOpts.questionsFile, "questions-file", "", "YAML file with a list of questions")
	cmd.Flags().BoolVar(&batchOpts.jsonOutput, "json", false, "Print answers as JSON")

	return cmd
}

func runBatch(cmd *cobra.Command, opts *rootOptions, batchOpts *batchOptions) error {
	questions, err := batchOpts.collectQuestions()
	if err != nil {
		return err
	}

	container, err := opts.Container(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	var printer io.Writer = out
	if batchOpts.jsonOutput {
		printer = io.Discard
	}

	answers := container.NewBatch(printer).Run(cmd.Context(), questions)

	if batchOpts.jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(answers); err != nil {
			return fmt.Errorf("failed to encode answers: %w", err)
		}
	}

	return nil
}

func (o *batchOptions) collectQuestions() ([]string, error) {
	var questions []string

	if o.questionsFile != "" {
		fromFile, err := readQuestions(o.questionsFile)
		if err != nil {
			return nil, err
		}
		questions = append(questions, fromFile...)
	}

	questions = append(questions, o.questions...)

	if len(questions) == 0 {
		return driver.DefaultQuestions, nil
	}

	return questions, nil
}

// readQuestions accepts either a bare YAML list or a mapping with a
// "questions" list.
func readQuestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Questions []string `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse questions file: %w", err)
	}

	return doc.Questions, nil
}
