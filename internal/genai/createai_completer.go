package genai

import (
	"context"
	"log/slog"
	"time"

	"github.com/garyellow/triangulator-go/internal/createai"
)

// Querier is the CreateAI /query endpoint.
type Querier interface {
	Query(ctx context.Context, req createai.QueryRequest) (string, error)
	ModelName() string
}

// createAICompleter answers fallback requests through CreateAI /query.
// The platform runs its own retrieval, so only the bare query is sent as the
// user turn; evidence reaches the model through the description candidate.
type createAICompleter struct {
	querier   Querier
	maxTokens int
}

func newCreateAICompleter(q Querier, maxTokens int) *createAICompleter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &createAICompleter{querier: q, maxTokens: maxTokens}
}

// Complete asks CreateAI for the catalog answer JSON.
func (c *createAICompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	start := time.Now()
	text, err := c.querier.Query(ctx, createai.QueryRequest{
		Query:        req.Query,
		SystemPrompt: SystemPrompt(req.Candidate),
		MaxTokens:    c.maxTokens,
		JSON:         true,
	})
	if err != nil {
		slog.WarnContext(ctx, "fallback completion failed",
			"provider", ProviderCreateAI,
			"model", c.querier.ModelName(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, WrapError(err, ProviderCreateAI, c.querier.ModelName(), 0)
	}

	return &Completion{Text: text, Provider: ProviderCreateAI, Model: c.querier.ModelName()}, nil
}

// Provider returns the provider type for this completer.
func (c *createAICompleter) Provider() Provider {
	return ProviderCreateAI
}

// Close releases resources.
func (c *createAICompleter) Close() error {
	return nil
}
