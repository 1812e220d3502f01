package ai

import "context"

// Chat roles understood by OpenAI-compatible endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message for LLM requests.
type Message struct {
	Role    string
	Content string
}

// ChatRequest defines the input to an LLM chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
}

// ChatResponse is a normalized response from an LLM.
type ChatResponse struct {
	Content string
	Model   string
}

// Provider defines the LLM interface used by the conversation driver.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 {
	return &v
}
