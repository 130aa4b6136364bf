package memory

import (
	"context"
	"sort"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

// Store persists recorded conversations. GetConversation returns nil, nil for
// an unknown id.
type Store interface {
	SaveConversation(ctx context.Context, conversation *types.Conversation) error
	GetConversation(ctx context.Context, id string) (*types.Conversation, error)
	GetConversations(ctx context.Context, filter Filter) ([]*types.Conversation, error)
}

type Filter struct {
	SessionID string                   `json:"session_id,omitempty"`
	Status    types.ConversationStatus `json:"status,omitempty"`
	Limit     int                      `json:"limit,omitempty"`
	Offset    int                      `json:"offset,omitempty"`
}

// Apply filters by status, orders newest first and paginates.
func (f Filter) Apply(conversations []*types.Conversation) []*types.Conversation {
	result := make([]*types.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		if conv == nil {
			continue
		}
		if f.Status != "" && conv.Status != f.Status {
			continue
		}
		result = append(result, conv)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(result) {
			return []*types.Conversation{}
		}
		result = result[f.Offset:]
	}

	if f.Limit > 0 && f.Limit < len(result) {
		result = result[:f.Limit]
	}

	return result
}

type NoOpStore struct {
}

func (s *NoOpStore) SaveConversation(ctx context.Context, conversation *types.Conversation) error {
	return nil
}

func (s *NoOpStore) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	return nil, nil
}

func (s *NoOpStore) GetConversations(ctx context.Context, filter Filter) ([]*types.Conversation, error) {
	return nil, nil
}
