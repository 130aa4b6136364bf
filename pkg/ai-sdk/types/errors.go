package types

import "errors"

var (
	// ErrUnknownProvider is returned when no provider is registered under a name
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidConversation is returned when a conversation cannot be stored
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrToolNotFound is returned when a tool call names an unregistered tool
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments is returned when tool call arguments do not match the tool schema
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrToolExecutionFailed is returned when tool execution fails
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrEmptyResponse is returned when the provider returns an empty response
	ErrEmptyResponse = errors.New("empty response from provider")
)
