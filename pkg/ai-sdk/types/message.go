package types

import "time"

// Message represents a single role-tagged message
type Message struct {
	Role        MessageRole    `json:"role"`
	Content     string         `json:"content"`
	ToolCalls   []ToolCall     `json:"tool_calls,omitempty"`
	ToolResults []ToolResult   `json:"tool_results,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

func UserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToolCall represents a tool call request from the LLM. When the arguments
// the model sent could not be decoded, Arguments is nil and RawArguments and
// ArgumentsError keep what arrived.
type ToolCall struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Arguments      map[string]any `json:"arguments"`
	RawArguments   string         `json:"raw_arguments,omitempty"`
	ArgumentsError string         `json:"arguments_error,omitempty"`
}

// Malformed reports whether the call's arguments failed to decode.
func (c ToolCall) Malformed() bool {
	return c.ArgumentsError != ""
}

// ToolResult represents the result of a tool call
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Conversation is a recorded exchange. The drivers never send it back to a
// model; it only backs transcripts.
type Conversation struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	Messages  []Message          `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Status    ConversationStatus `json:"status"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
}

func (c *Conversation) IsCompleted() bool {
	return c.Status == StatusCompleted
}

func (c *Conversation) IsFailed() bool {
	return c.Status == StatusFailed
}

// ConversationStatus defines the status of a conversation
type ConversationStatus string

const (
	StatusCompleted ConversationStatus = "completed"
	StatusFailed    ConversationStatus = "failed"
)
