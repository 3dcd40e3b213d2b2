// Package openai provides the OpenAI answer provider implementation, used as
// the secondary provider in the assistant fallback chain.
package openai

import (
	"context"
	"fmt"
	"os"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/notedhq/noted/pkg/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-3.5-turbo"

const (
	maxTokens   = 200
	temperature = 0.7
)

// Provider implements the answer provider interface for OpenAI-compatible APIs.
type Provider struct {
	client openaisdk.Client
	model  string
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it will attempt to read from the OPENAI_API_KEY
// environment variable. A custom endpoint can be supplied through
// OPENAI_BASE_URL, which the client library honors natively.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	p := &Provider{
		client: openaisdk.NewClient(clientOpts...),
		model:  DefaultModel,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Complete sends messages to the OpenAI API and returns the full response.
// Inline images are not forwarded; this provider is text-only.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(p.model),
		Messages:    convertMessages(messages),
		MaxTokens:   openaisdk.Int(maxTokens),
		Temperature: openaisdk.Float(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	return types.NewAssistantMessage(completion.Choices[0].Message.Content), nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// convertMessages converts our Message format to the SDK's message union.
func convertMessages(messages []*types.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case types.RoleUser:
			out = append(out, openaisdk.UserMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			// Default to user message for unknown roles
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}

	return out
}
