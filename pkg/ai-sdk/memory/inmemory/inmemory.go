package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*types.Conversation
	sessionIndex  map[string][]string
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*types.Conversation),
		sessionIndex:  make(map[string][]string),
	}
}

func (s *Store) SaveConversation(ctx context.Context, conversation *types.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return types.ErrInvalidConversation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation.UpdatedAt = time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = conversation.UpdatedAt
	}

	stored := *conversation
	stored.Messages = slices.Clone(conversation.Messages)
	s.conversations[conversation.ID] = &stored

	if conversation.SessionID != "" && !slices.Contains(s.sessionIndex[conversation.SessionID], conversation.ID) {
		s.sessionIndex[conversation.SessionID] = append(s.sessionIndex[conversation.SessionID], conversation.ID)
	}

	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}

	copied := *conv
	return &copied, nil
}

func (s *Store) GetConversations(ctx context.Context, filter memory.Filter) ([]*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conversations []*types.Conversation

	if filter.SessionID != "" {
		for _, id := range s.sessionIndex[filter.SessionID] {
			if conv, ok := s.conversations[id]; ok {
				copied := *conv
				conversations = append(conversations, &copied)
			}
		}
	} else {
		for _, conv := range s.conversations {
			copied := *conv
			conversations = append(conversations, &copied)
		}
	}

	return filter.Apply(conversations), nil
}
