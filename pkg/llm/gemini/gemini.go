// Package gemini provides the Google Gemini answer provider implementation.
//
// Example usage:
//
//	provider, err := gemini.NewProvider(
//	    os.Getenv("GEMINI_API_KEY"),
//	    gemini.WithModel("gemini-1.5-flash"),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	msg, err := provider.Complete(ctx, []*types.Message{
//	    types.NewUserMessage("What is the capital of France?"),
//	})
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/notedhq/noted/pkg/llm"
	"github.com/notedhq/noted/pkg/types"
)

const (
	// DefaultBaseURL is the default Gemini API base URL
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-flash"
)

const (
	maxOutputTokens = 300
	temperature     = 0.3
)

// Provider implements the answer provider interface for the Gemini API.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL, for proxies or API-compatible services.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// NewProvider creates a new Gemini provider with the given API key.
//
// If apiKey is empty, it will attempt to read from the GEMINI_API_KEY and
// GOOGLE_API_KEY environment variables.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (provide via parameter or GEMINI_API_KEY environment variable)")
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// CloneWithModel returns a shallow copy of p configured to use the given
// model. The clone shares the HTTP client, API key, and base URL with the
// original, making it very cheap to create. It implements llm.ModelCloner.
func (p *Provider) CloneWithModel(model string) llm.Provider {
	clone := *p // shares httpClient, apiKey, and baseURL
	clone.model = model
	return &clone
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *generateInline `json:"inline_data,omitempty"`
}

type generateInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends messages to the Gemini API and returns the full response.
//
// The messages are flattened into a single prompt: generateContent has no
// role structure comparable to chat completions, and the assistant only ever
// sends a system preamble plus one user turn. An inline image on any message
// is forwarded as an inline_data part.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	var req generateRequest
	req.Contents = make([]struct {
		Parts []generatePart `json:"parts"`
	}, 1)

	var prompt []string
	var image *types.ImageData
	for _, msg := range messages {
		if msg.Content != "" {
			prompt = append(prompt, msg.Content)
		}
		if msg.Image != nil {
			image = msg.Image
		}
	}

	req.Contents[0].Parts = []generatePart{{Text: strings.Join(prompt, "\n\n")}}
	if image != nil {
		req.Contents[0].Parts = append(req.Contents[0].Parts, generatePart{
			InlineData: &generateInline{MimeType: image.MimeType, Data: image.Data},
		})
	}
	req.GenerationConfig.MaxOutputTokens = maxOutputTokens
	req.GenerationConfig.Temperature = temperature

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("model %q: %w", p.model, llm.ErrModelNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("response contained no candidates")
	}

	return types.NewAssistantMessage(result.Candidates[0].Content.Parts[0].Text), nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}
