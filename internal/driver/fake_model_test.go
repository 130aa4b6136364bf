package driver

import (
	"context"
	"sync"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/provider"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

type scriptedReply struct {
	response *types.GenerateResponse
	err      error
	panic    any
}

// scriptedModel replays replies in order and records every request.
type scriptedModel struct {
	mu       sync.Mutex
	replies  []scriptedReply
	requests []provider.GenerateRequest
}

func (m *scriptedModel) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.replies) == 0 {
		return &types.GenerateResponse{FinishReason: types.FinishReasonStop}, nil
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]

	if reply.panic != nil {
		panic(reply.panic)
	}

	return reply.response, reply.err
}

func (m *scriptedModel) ID() string {
	return "scripted:test"
}

func (m *scriptedModel) Capabilities() provider.Capabilities {
	return provider.Capabilities{SupportsTools: true}
}

func textReply(content string) scriptedReply {
	return scriptedReply{response: &types.GenerateResponse{Content: content, FinishReason: types.FinishReasonStop}}
}

func toolReply(calls ...types.ToolCall) scriptedReply {
	return scriptedReply{response: &types.GenerateResponse{ToolCalls: calls, FinishReason: types.FinishReasonToolCalls}}
}
