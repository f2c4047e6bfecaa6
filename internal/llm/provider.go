package llm

import (
	"context"
	"errors"
)

// ErrProviderNotConfigured is returned when a provider has no usable credential.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Provider answers a single chat request against one fixed vendor.
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
	DefaultModel() string
}

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is the input for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatResponse is the output from chat completions.
type ChatResponse struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// QuestionRequest builds the one-message request used by the direct endpoints.
func QuestionRequest(model, question string) ChatRequest {
	return ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: question}},
		Temperature: 0.7,
		MaxTokens:   150,
	}
}
