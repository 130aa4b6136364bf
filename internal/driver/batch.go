package driver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/coderFeedForwardAlg/tool-use/internal/transcript"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/coderFeedForwardAlg/tool-use/pkg/arith"
	"github.com/coderFeedForwardAlg/tool-use/pkg/extract"
	"github.com/rs/zerolog/log"
)

// SystemPrompt is sent with questions the extractor could not answer alone.
const SystemPrompt = "You are a calculator. Find the two numbers in the user's message, " +
	"add them, and reply in the form \"A + B = SUM\" using digits only."

var DefaultQuestions = []string{
	"Add 10 and 20",
	"I need to add 50 and 75",
	"What's the weather like today?",
	"Can you sum 100 and 250 for me?",
}

var errNoModel = errors.New("no model configured")

// Source tells where an answer's numbers came from: the question itself
// (direct), the model's reply (model), or nowhere, in which case the reply is
// returned as is (raw).
type Source string

const (
	SourceDirect Source = "direct"
	SourceModel  Source = "model"
	SourceRaw    Source = "raw"
	SourceError  Source = "error"
)

type Answer struct {
	Question string `json:"question"`
	Text     string `json:"answer"`
	Source   Source `json:"source"`
}

// Batch answers a fixed list of questions, falling back to the model only
// when the question does not hold two numbers.
type Batch struct {
	model     provider.LanguageModel
	loadModel func(ctx context.Context) (provider.LanguageModel, error)
	recorder  *transcript.Recorder
	out       io.Writer
	usage     types.Usage
}

// BatchDependencies takes either a ready Model or LoadModel, which is called
// on the first question the extractor cannot answer alone.
type BatchDependencies struct {
	Model     provider.LanguageModel
	LoadModel func(ctx context.Context) (provider.LanguageModel, error)
	Recorder  *transcript.Recorder
	Out       io.Writer
}

func NewBatch(deps BatchDependencies) *Batch {
	out := deps.Out
	if out == nil {
		out = io.Discard
	}

	return &Batch{
		model:     deps.Model,
		loadModel: deps.LoadModel,
		recorder:  deps.Recorder,
		out:       out,
	}
}

// Run answers every question in order and prints each pair.
func (b *Batch) Run(ctx context.Context, questions []string) []Answer {
	answers := make([]Answer, 0, len(questions))

	for _, question := range questions {
		answer := b.Answer(ctx, question)

		fmt.Fprintf(b.out, "Question: %s\n", answer.Question)
		fmt.Fprintf(b.out, "Answer: %s\n\n", answer.Text)

		answers = append(answers, answer)
	}

	log.Debug().Int("total_tokens", b.usage.TotalTokens).Int("questions", len(questions)).Msg("Batch finished")

	return answers
}

func (b *Batch) Usage() types.Usage {
	return b.usage
}

// Answer never fails: every error, including a panic, becomes an answer
// with SourceError.
func (b *Batch) Answer(ctx context.Context, question string) (answer Answer) {
	messages := []types.Message{types.UserMessage(question)}

	defer func() {
		if r := recover(); r != nil {
			answer = errorAnswer(question, fmt.Errorf("%v", r))
		}

		var turnErr error
		if answer.Source == SourceError {
			turnErr = errors.New(answer.Text)
		}

		messages = append(messages, types.Message{
			Role:     types.RoleAssistant,
			Content:  answer.Text,
			Metadata: map[string]any{"source": string(answer.Source)},
		})
		b.recorder.Record(ctx, messages, turnErr)
	}()

	text, source, err := b.answer(ctx, question)
	if err != nil {
		log.Debug().Err(err).Str("question", question).Msg("Failed to answer question")
		return errorAnswer(question, err)
	}

	return Answer{
		Question: question,
		Text:     text,
		Source:   source,
	}
}

func (b *Batch) answer(ctx context.Context, question string) (string, Source, error) {
	pair, err := extract.FirstTwo(question)
	if err != nil {
		return "", "", err
	}

	if pair != nil {
		return sumPhrase(pair), SourceDirect, nil
	}

	model, err := b.getModel(ctx)
	if err != nil {
		return "", "", err
	}

	resp, err := model.Generate(ctx, provider.GenerateRequest{
		System:   SystemPrompt,
		Messages: []types.Message{types.UserMessage(question)},
	})
	if err != nil {
		return "", "", err
	}

	b.usage = b.usage.Add(resp.Usage)

	pair, err = extract.FirstTwo(resp.Content)
	if err != nil {
		return "", "", err
	}

	if pair != nil {
		return sumPhrase(pair), SourceModel, nil
	}

	return resp.Content, SourceRaw, nil
}

func (b *Batch) getModel(ctx context.Context) (provider.LanguageModel, error) {
	if b.model != nil {
		return b.model, nil
	}

	if b.loadModel == nil {
		return nil, errNoModel
	}

	model, err := b.loadModel(ctx)
	if err != nil {
		return nil, err
	}

	b.model = model

	return model, nil
}

func sumPhrase(pair *extract.Pair) string {
	return fmt.Sprintf("The sum of %d and %d is %s", pair.A, pair.B, arith.SumAsString(pair.A, pair.B))
}

func errorAnswer(question string, err error) Answer {
	return Answer{
		Question: question,
		Text:     fmt.Sprintf("An error occurred: %v", err),
		Source:   SourceError,
	}
}
