package driver

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/coderFeedForwardAlg/tool-use/internal/transcript"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory/inmemory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_Answer(t *testing.T) {
	tests := []struct {
		name             string
		question         string
		replies          []scriptedReply
		expected         Answer
		expectedRequests int
	}{
		{
			name:     "numbers in question",
			question: "Add 10 and 20",
			expected: Answer{Question: "Add 10 and 20", Text: "The sum of 10 and 20 is 30", Source: SourceDirect},
		},
		{
			name:     "extra numbers ignored",
			question: "Can you sum 100 and 250 and 7 for me?",
			expected: Answer{Question: "Can you sum 100 and 250 and 7 for me?", Text: "The sum of 100 and 250 is 350", Source: SourceDirect},
		},
		{
			name:             "numbers in reply",
			question:         "add ten and twenty",
			replies:          []scriptedReply{textReply("10 + 20 = 30")},
			expected:         Answer{Question: "add ten and twenty", Text: "The sum of 10 and 20 is 30", Source: SourceModel},
			expectedRequests: 1,
		},
		{
			name:             "raw reply",
			question:         "What's the weather like today?",
			replies:          []scriptedReply{textReply("I don't see any numbers to add.")},
			expected:         Answer{Question: "What's the weather like today?", Text: "I don't see any numbers to add.", Source: SourceRaw},
			expectedRequests: 1,
		},
		{
			name:             "model error",
			question:         "What's the weather like today?",
			replies:          []scriptedReply{{err: errors.New("connection refused")}},
			expected:         Answer{Question: "What's the weather like today?", Text: "An error occurred: connection refused", Source: SourceError},
			expectedRequests: 1,
		},
		{
			name:             "model panic",
			question:         "anything",
			replies:          []scriptedReply{{panic: "nil client"}},
			expected:         Answer{Question: "anything", Text: "An error occurred: nil client", Source: SourceError},
			expectedRequests: 1,
		},
		{
			name:     "number out of range",
			question: "Add 99999999999999999999 and 1",
			expected: Answer{Question: "Add 99999999999999999999 and 1", Text: "An error occurred: number out of range: 99999999999999999999", Source: SourceError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{replies: tt.replies}
			b := NewBatch(BatchDependencies{Model: model})

			answer := b.Answer(context.Background(), tt.question)

			assert.Equal(t, tt.expected, answer)
			require.Len(t, model.requests, tt.expectedRequests)
			if tt.expectedRequests > 0 {
				assert.Equal(t, SystemPrompt, model.requests[0].System)
				assert.Empty(t, model.requests[0].Tools)
			}
		})
	}
}

func TestBatch_AnswerWithoutModel(t *testing.T) {
	b := NewBatch(BatchDependencies{})

	assert.Equal(t, SourceDirect, b.Answer(context.Background(), "Add 1 and 2").Source)

	answer := b.Answer(context.Background(), "no numbers here")
	assert.Equal(t, SourceError, answer.Source)
	assert.Equal(t, "An error occurred: no model configured", answer.Text)
}

func TestBatch_LoadsModelOnFirstFallback(t *testing.T) {
	model := &scriptedModel{replies: []scriptedReply{textReply("2 + 2 = 4"), textReply("3 + 3 = 6")}}
	loads := 0

	b := NewBatch(BatchDependencies{
		LoadModel: func(ctx context.Context) (provider.LanguageModel, error) {
			loads++
			return model, nil
		},
	})

	assert.Equal(t, SourceDirect, b.Answer(context.Background(), "Add 1 and 2").Source)
	assert.Equal(t, 0, loads)

	assert.Equal(t, "The sum of 2 and 2 is 4", b.Answer(context.Background(), "two and two").Text)
	assert.Equal(t, "The sum of 3 and 3 is 6", b.Answer(context.Background(), "three and three").Text)
	assert.Equal(t, 1, loads)
}

func TestBatch_LoadModelFailure(t *testing.T) {
	b := NewBatch(BatchDependencies{
		LoadModel: func(ctx context.Context) (provider.LanguageModel, error) {
			return nil, errors.New("missing required environment variables: OPENAI_API_KEY")
		},
	})

	answers := b.Run(context.Background(), []string{"Add 1 and 2", "no numbers here"})
	require.Len(t, answers, 2)
	assert.Equal(t, "The sum of 1 and 2 is 3", answers[0].Text)
	assert.Equal(t, SourceError, answers[1].Source)
	assert.Equal(t, "An error occurred: missing required environment variables: OPENAI_API_KEY", answers[1].Text)
}

func TestBatch_Run(t *testing.T) {
	model := &scriptedModel{replies: []scriptedReply{textReply("There are no numbers in that question.")}}
	store := inmemory.New()
	out := &bytes.Buffer{}

	b := NewBatch(BatchDependencies{
		Model:    model,
		Recorder: transcript.NewRecorder(transcript.RecorderOpts{Store: store, Mode: "batch"}),
		Out:      out,
	})

	answers := b.Run(context.Background(), DefaultQuestions)

	require.Len(t, answers, 4)
	assert.Equal(t, "The sum of 10 and 20 is 30", answers[0].Text)
	assert.Equal(t, "The sum of 50 and 75 is 125", answers[1].Text)
	assert.Equal(t, SourceRaw, answers[2].Source)
	assert.Equal(t, "The sum of 100 and 250 is 350", answers[3].Text)
	assert.Len(t, model.requests, 1)

	assert.Equal(t, "Question: Add 10 and 20\nAnswer: The sum of 10 and 20 is 30\n\n", out.String()[:len("Question: Add 10 and 20\nAnswer: The sum of 10 and 20 is 30\n\n")])

	recorded, err := store.GetConversations(context.Background(), memory.Filter{Status: types.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, recorded, 4)
}

func TestBatch_Usage(t *testing.T) {
	model := &scriptedModel{replies: []scriptedReply{
		{response: &types.GenerateResponse{Content: "no idea", Usage: types.Usage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25}}},
		{response: &types.GenerateResponse{Content: "4 + 4 = 8", Usage: types.Usage{PromptTokens: 21, CompletionTokens: 7, TotalTokens: 28}}},
	}}
	b := NewBatch(BatchDependencies{Model: model})

	b.Run(context.Background(), []string{"weather?", "Add 1 and 1", "four and four"})

	assert.Equal(t, types.Usage{PromptTokens: 41, CompletionTokens: 12, TotalTokens: 53}, b.Usage())
}
