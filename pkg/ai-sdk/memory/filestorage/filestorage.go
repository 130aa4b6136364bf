package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
)

const indexFile = "index.json"

// Store keeps one JSON file per conversation plus a session index file.
type Store struct {
	mu      sync.RWMutex
	baseDir string
	index   *index
}

type index struct {
	SessionIndex map[string][]string `json:"session_index"`
}

// New creates a new file storage with the given base directory
// If baseDir is empty, it defaults to "./transcripts"
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "./transcripts"
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	store := &Store{
		baseDir: baseDir,
		index: &index{
			SessionIndex: make(map[string][]string),
		},
	}

	if err := store.loadIndex(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load index: %w", err)
		}
		if err := store.rebuildIndex(); err != nil {
			return nil, fmt.Errorf("failed to rebuild index: %w", err)
		}
	}

	return store, nil
}

func (s *Store) SaveConversation(ctx context.Context, conversation *types.Conversation) error {
	if conversation == nil || conversation.ID == "" || strings.ContainsAny(conversation.ID, `/\`) {
		return types.ErrInvalidConversation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation.UpdatedAt = time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = conversation.UpdatedAt
	}

	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := os.WriteFile(s.conversationPath(conversation.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}

	if conversation.SessionID != "" && !slices.Contains(s.index.SessionIndex[conversation.SessionID], conversation.ID) {
		s.index.SessionIndex[conversation.SessionID] = append(s.index.SessionIndex[conversation.SessionID], conversation.ID)

		if err := s.saveIndex(); err != nil {
			return fmt.Errorf("failed to save index: %w", err)
		}
	}

	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadConversation(id)
}

func (s *Store) GetConversations(ctx context.Context, filter memory.Filter) ([]*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string

	if filter.SessionID != "" {
		ids = s.index.SessionIndex[filter.SessionID]
	} else {
		all, err := s.listIDs()
		if err != nil {
			return nil, err
		}
		ids = all
	}

	var conversations []*types.Conversation
	for _, id := range ids {
		conv, err := s.loadConversation(id)
		if err != nil {
			// Unreadable files are skipped rather than failing the listing
			continue
		}
		conversations = append(conversations, conv)
	}

	return filter.Apply(conversations), nil
}

func (s *Store) conversationPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.baseDir, indexFile)
}

func (s *Store) listIDs() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcripts directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || name == indexFile {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

func (s *Store) loadConversation(id string) (*types.Conversation, error) {
	data, err := os.ReadFile(s.conversationPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv types.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, s.index); err != nil {
		return err
	}

	if s.index.SessionIndex == nil {
		s.index.SessionIndex = make(map[string][]string)
	}

	return nil
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.indexPath(), data, 0644)
}

func (s *Store) rebuildIndex() error {
	ids, err := s.listIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		conv, err := s.loadConversation(id)
		if err != nil || conv == nil || conv.SessionID == "" {
			continue
		}

		if !slices.Contains(s.index.SessionIndex[conv.SessionID], conv.ID) {
			s.index.SessionIndex[conv.SessionID] = append(s.index.SessionIndex[conv.SessionID], conv.ID)
		}
	}

	return s.saveIndex()
}
