package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/memory"
	"github.com/coderFeedForwardAlg/tool-use/pkg/ai-sdk/types"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// Recorder writes each driver turn to a store under one session. It never
// feeds anything back to the model.
type Recorder struct {
	store     memory.Store
	sessionID string
	mode      string
}

type RecorderOpts struct {
	Store memory.Store
	// Mode is stored in the conversation metadata, e.g. "chat" or "batch"
	Mode string
	// SessionID defaults to a fresh UUID
	SessionID string
}

func NewRecorder(opts RecorderOpts) *Recorder {
	store := opts.Store
	if store == nil {
		store = &memory.NoOpStore{}
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	return &Recorder{
		store:     store,
		sessionID: sessionID,
		mode:      opts.Mode,
	}
}

func (r *Recorder) SessionID() string {
	return r.sessionID
}

func (r *Recorder) Store() memory.Store {
	return r.store
}

// Record stores one turn as a new conversation. Failures are logged and
// swallowed; a nil Recorder records nothing.
func (r *Recorder) Record(ctx context.Context, messages []types.Message, turnErr error) string {
	if r == nil {
		return ""
	}

	now := time.Now()

	conversation := &types.Conversation{
		ID:        xid.New().String(),
		SessionID: r.sessionID,
		Messages:  messages,
		CreatedAt: now,
		Status:    types.StatusCompleted,
		Metadata:  map[string]any{},
	}

	if r.mode != "" {
		conversation.Metadata["mode"] = r.mode
	}

	if turnErr != nil {
		conversation.Status = types.StatusFailed
		conversation.Metadata["error"] = turnErr.Error()
	}

	if err := r.store.SaveConversation(ctx, conversation); err != nil {
		log.Warn().Err(err).Str("session_id", r.sessionID).Msg("Failed to record transcript")
		return ""
	}

	return conversation.ID
}

// List returns recorded conversations, newest first
func (r *Recorder) List(ctx context.Context, filter memory.Filter) ([]*types.Conversation, error) {
	conversations, err := r.store.GetConversations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	return conversations, nil
}
