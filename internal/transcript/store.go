package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory/filestorage"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory/inmemory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory/redis"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Backend  string
	Dir      string
	RedisURL string
	TTL      time.Duration
}

// NewStore opens the configured transcript backend. An empty backend means
// in-memory.
func NewStore(ctx context.Context, config Config) (memory.Store, error) {
	switch config.Backend {
	case BackendNone:
		return &memory.NoOpStore{}, nil
	case BackendMemory, "":
		return inmemory.New(), nil
	case BackendFile:
		store, err := filestorage.New(config.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open transcript directory: %w", err)
		}
		return store, nil
	case BackendRedis:
		store, err := redis.New(ctx, redis.Opts{
			URL: config.RedisURL,
			TTL: config.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis transcript store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown transcript backend %q", config.Backend)
	}
}
