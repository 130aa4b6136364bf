package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "tooluse"

// Store keeps each conversation as a JSON string and indexes ids in sorted
// sets scored by creation time, one per session plus one global.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

type Opts struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
}

func New(ctx context.Context, opts Opts) (*Store, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, opts), nil
}

func NewWithClient(client *redis.Client, opts Opts) *Store {
	keyPrefix := opts.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       opts.TTL,
	}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) convKey(id string) string {
	return fmt.Sprintf("%s:conversation:%s", s.keyPrefix, id)
}

func (s *Store) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.keyPrefix, sessionID)
}

func (s *Store) allKey() string {
	return fmt.Sprintf("%s:conversations", s.keyPrefix)
}

func (s *Store) SaveConversation(ctx context.Context, conversation *types.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return types.ErrInvalidConversation
	}

	conversation.UpdatedAt = time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = conversation.UpdatedAt
	}

	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	member := redis.Z{
		Score:  float64(conversation.CreatedAt.UnixNano()),
		Member: conversation.ID,
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.convKey(conversation.ID), data, s.ttl)
		pipe.ZAdd(ctx, s.allKey(), member)

		if conversation.SessionID != "" {
			sessionKey := s.sessionKey(conversation.SessionID)
			pipe.ZAdd(ctx, sessionKey, member)
			if s.ttl > 0 {
				pipe.Expire(ctx, sessionKey, s.ttl)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	data, err := s.client.Get(ctx, s.convKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var conv types.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) GetConversations(ctx context.Context, filter memory.Filter) ([]*types.Conversation, error) {
	key := s.allKey()
	if filter.SessionID != "" {
		key = s.sessionKey(filter.SessionID)
	}

	ids, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(ids) == 0 {
		return filter.Apply(nil), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.convKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}

	var expired []any
	conversations := make([]*types.Conversation, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// The conversation key expired but its index entry did not
			expired = append(expired, ids[i])
			continue
		}

		var conv types.Conversation
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
		}
		conversations = append(conversations, &conv)
	}

	if len(expired) > 0 {
		s.client.ZRem(ctx, key, expired...)
	}

	return filter.Apply(conversations), nil
}
