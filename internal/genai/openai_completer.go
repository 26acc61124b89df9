package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiCompleter answers fallback requests through any OpenAI-compatible
// provider (Groq, Cerebras) via custom BaseURL.
type openaiCompleter struct {
	client    openai.Client
	model     string
	provider  Provider
	maxTokens int
}

// newOpenAICompleter creates an OpenAI-compatible completer.
// Returns nil if apiKey is empty (provider disabled).
func newOpenAICompleter(provider Provider, apiKey, model string, maxTokens int, opts ...option.RequestOption) (*openaiCompleter, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModels[0]
		case ProviderCerebras:
			model = DefaultCerebrasModels[0]
		}
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	// Later options win, so tests can point the client at a local server.
	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &openaiCompleter{
		client:    openai.NewClient(opts...),
		model:     model,
		provider:  provider,
		maxTokens: maxTokens,
	}, nil
}

// Complete asks the provider for the catalog answer JSON.
func (c *openaiCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(req.Candidate)),
			openai.UserMessage(UserPrompt(req)),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "fallback completion failed",
			"provider", c.provider,
			"model", c.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, WrapError(fmt.Errorf("chat completion failed: %w", err), c.provider, c.model, status)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, WrapError(errors.New("empty response"), c.provider, c.model, 0)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "fallback completion done",
			"provider", c.provider,
			"model", c.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return &Completion{Text: resp.Choices[0].Message.Content, Provider: c.provider, Model: c.model}, nil
}

// Provider returns the provider type for this completer.
func (c *openaiCompleter) Provider() Provider {
	if c == nil {
		return ""
	}
	return c.provider
}

// Close releases resources.
// openai-go client doesn't require cleanup.
func (c *openaiCompleter) Close() error {
	return nil
}
