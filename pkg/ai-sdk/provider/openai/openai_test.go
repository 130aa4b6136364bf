package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo-0125",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "sum_as_string", "arguments": "{\"a\": 5, \"b\": 3}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52}
}`

func newTestServer(t *testing.T, body string, captured *map[string]any) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		if captured != nil {
			require.NoError(t, json.Unmarshal(raw, captured))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestProvider_Generate_ToolCalls(t *testing.T) {
	var request map[string]any
	server := newTestServer(t, toolCallCompletion, &request)

	p := New(provider.Settings{APIKey: "test-key", BaseURL: server.URL + "/v1/", Model: "gpt-3.5-turbo"})

	resp, err := p.Generate(context.Background(), provider.GenerateRequest{
		Messages: []types.Message{types.UserMessage("What is 5 plus 3?")},
		Tools: []types.Tool{{
			Name:        "sum_as_string",
			Description: "Returns the sum of two numbers as a string.",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo-0125", resp.Model)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 52, resp.Usage.TotalTokens)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "sum_as_string", resp.ToolCalls[0].Name)
	assert.Equal(t, json.Number("5"), resp.ToolCalls[0].Arguments["a"])
	assert.Equal(t, json.Number("3"), resp.ToolCalls[0].Arguments["b"])

	assert.Equal(t, "gpt-3.5-turbo", request["model"])
	tools, ok := request["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	function := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "sum_as_string", function["name"])
}

func TestProvider_Generate_MalformedArguments(t *testing.T) {
	body := strings.Replace(toolCallCompletion, `{\"a\": 5, \"b\": 3}`, `{\"a\": 5, \"b\": 3`, 1)
	server := newTestServer(t, body, nil)

	p := New(provider.Settings{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-3.5-turbo"})

	resp, err := p.Generate(context.Background(), provider.GenerateRequest{
		Messages: []types.Message{types.UserMessage("add 5 and 3")},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	call := resp.ToolCalls[0]
	assert.Equal(t, "sum_as_string", call.Name)
	assert.True(t, call.Malformed())
	assert.Nil(t, call.Arguments)
	assert.Equal(t, `{"a": 5, "b": 3`, call.RawArguments)
}

func TestProvider_Generate_SystemPrompt(t *testing.T) {
	body := `{"id":"x","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"10 + 20 = 30"}}]}`

	var request map[string]any
	server := newTestServer(t, body, &request)

	p := New(provider.Settings{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-3.5-turbo"})

	resp, err := p.Generate(context.Background(), provider.GenerateRequest{
		System:   "Extract and add the numbers.",
		Messages: []types.Message{types.UserMessage("ten and twenty")},
	})
	require.NoError(t, err)
	assert.Equal(t, "10 + 20 = 30", resp.Content)
	assert.Empty(t, resp.ToolCalls)

	messages := request["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	assert.NotContains(t, request, "tools")
}

func TestProvider_Generate_EmptyChoices(t *testing.T) {
	server := newTestServer(t, `{"id":"x","object":"chat.completion","model":"gpt-3.5-turbo","choices":[]}`, nil)

	p := New(provider.Settings{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "gpt-3.5-turbo"})

	_, err := p.Generate(context.Background(), provider.GenerateRequest{
		Messages: []types.Message{types.UserMessage("hi")},
	})
	assert.ErrorIs(t, err, types.ErrEmptyResponse)
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = decodeArguments(`{"a": 9007199254740993}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), args["a"])

	_, err = decodeArguments(`{"a":`)
	assert.Error(t, err)
}

func TestProvider_ID(t *testing.T) {
	p := New(provider.Settings{APIKey: "k", Model: "gpt-4o"})

	assert.Equal(t, "openai:gpt-4o", p.ID())
	assert.True(t, p.Capabilities().SupportsTools)
	assert.Equal(t, 128000, p.Capabilities().MaxContextTokens)
}
