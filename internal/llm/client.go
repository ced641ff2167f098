// Package llm provides completion client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredential indicates a missing or malformed API key. It is
// detected by a cheap prefix check before any network call is made.
var ErrInvalidCredential = errors.New("missing or invalid API credential")

// CompletionRequest represents a single synchronous completion request.
// The message list carries the full accumulated conversation each call;
// no server-side session state is assumed.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
}

// ChatMessage represents a chat message in provider wire shape.
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

// Client is the interface for completion providers.
type Client interface {
	// Complete sends a blocking completion request and returns the
	// assistant's reply. No client-side retry or timeout beyond ctx.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of completion provider.
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// keyPrefixes maps each provider to the prefix its API keys carry.
var keyPrefixes = map[Provider]string{
	ProviderGroq:      "gsk_",
	ProviderOpenAI:    "sk-",
	ProviderAnthropic: "sk-ant-",
}

// ValidateCredential checks an API key's shape without any network
// call. An empty or wrongly prefixed key fails with
// ErrInvalidCredential so callers can surface a warning instead of
// attempting the request.
func ValidateCredential(provider Provider, apiKey string) error {
	prefix, ok := keyPrefixes[provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if apiKey == "" {
		return fmt.Errorf("%w: no API key configured for %s", ErrInvalidCredential, provider)
	}
	if !strings.HasPrefix(apiKey, prefix) {
		return fmt.Errorf("%w: %s keys must start with %q", ErrInvalidCredential, provider, prefix)
	}
	return nil
}

// NewClient creates a completion client for the given provider. The
// credential is validated before the client is constructed.
func NewClient(provider Provider, apiKey string) (Client, error) {
	if err := ValidateCredential(provider, apiKey); err != nil {
		return nil, err
	}
	switch provider {
	case ProviderGroq:
		return NewGroqClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
