// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	// JSON asks the provider for a single JSON object where supported.
	JSON bool
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

type clientOptions struct {
	baseURL string
}

// Option configures a provider client.
type Option func(*clientOptions)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string, opts ...Option) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, opts...)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, opts...)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// ErrNoProvider is returned when no provider has an API key.
var ErrNoProvider = errors.New("no LLM provider configured")

// NewPreferred creates a client for preferred when it has a key, else for
// the first other provider that does.
func NewPreferred(preferred Provider, keys map[Provider]string, opts ...Option) (Client, error) {
	order := []Provider{preferred, ProviderOpenAI, ProviderAnthropic}
	for _, provider := range order {
		if key := keys[provider]; key != "" {
			return NewClient(provider, key, opts...)
		}
	}
	return nil, ErrNoProvider
}

func applyOptions(opts []Option) clientOptions {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultMaxTokens(n int) int {
	if n == 0 {
		return 4096
	}
	return n
}
