package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiCompleter answers fallback requests through the Gemini API.
type geminiCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// newGeminiCompleter creates a Gemini completer.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiCompleter(ctx context.Context, apiKey, model string, maxTokens int) (*geminiCompleter, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if model == "" {
		model = DefaultGeminiModels[0]
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiCompleter{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens), //nolint:gosec // bounded by config validation
	}, nil
}

// Complete asks Gemini for the catalog answer JSON.
func (c *geminiCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(req.Candidate), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   c.maxTokens,
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(UserPrompt(req)), config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "fallback completion failed",
			"provider", ProviderGemini,
			"model", c.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, c.model, 0)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, WrapError(errors.New("empty response"), ProviderGemini, c.model, 0)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "fallback completion done",
			"provider", ProviderGemini,
			"model", c.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return &Completion{Text: text.String(), Provider: ProviderGemini, Model: c.model}, nil
}

// Provider returns the provider type for this completer.
func (c *geminiCompleter) Provider() Provider {
	return ProviderGemini
}

// Close releases resources.
// Safe to call on nil receiver.
func (c *geminiCompleter) Close() error {
	return nil
}
