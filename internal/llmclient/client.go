package llmclient

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of conversation context.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request carries everything one completion call needs.
type Request struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// Result is the raw completion output plus call metadata.
// Content is unstructured text; callers own any JSON coercion.
type Result struct {
	Content        string
	TokensUsed     int
	ProcessingTime time.Duration
}

// Client defines the interface for text completion providers.
// Implementations handle only the API call itself; retries and rate
// limiting belong to the provider side, not the capture core.
type Client interface {
	Name() string
	Close() error
	Complete(ctx context.Context, req Request) (Result, error)
}
