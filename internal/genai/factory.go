package genai

import (
	"context"
	"log/slog"

	"github.com/garyellow/triangulator-go/internal/metrics"
)

// CreateCompleter builds the fallback chain described by cfg.
//
// Provider selection logic:
//  1. Providers are visited in cfg.Providers order.
//  2. Within a provider, every configured model is added in order.
//  3. CreateAI is added when q is non-nil and has credentials.
//  4. Providers without credentials are skipped silently.
//
// The returned completer is never nil; with an empty chain every call
// reports ErrFallbackUnavailable.
func CreateCompleter(ctx context.Context, cfg LLMConfig, q Querier, m *metrics.Metrics) *FallbackCompleter {
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = DefaultProviders
	}

	var chain []Completer
	seen := make(map[Provider]bool)

	for _, p := range providers {
		if seen[p] {
			continue
		}
		seen[p] = true

		switch {
		case p == ProviderCreateAI:
			if q == nil || !hasCredentials(q) {
				continue
			}
			chain = append(chain, newCreateAICompleter(q, cfg.MaxTokens))

		case p == ProviderGemini:
			for _, model := range modelsOrDefault(cfg.Gemini.Models, DefaultGeminiModels) {
				c, err := newGeminiCompleter(ctx, cfg.Gemini.APIKey, model, cfg.MaxTokens)
				if err != nil {
					slog.WarnContext(ctx, "failed to create gemini completer", "model", model, "error", err)
					continue
				}
				if c != nil {
					chain = append(chain, c)
				}
			}

		case p.IsOpenAICompatible():
			pc := cfg.GetProviderConfig(p)
			defaults := DefaultGroqModels
			if p == ProviderCerebras {
				defaults = DefaultCerebrasModels
			}
			for _, model := range modelsOrDefault(pc.Models, defaults) {
				c, err := newOpenAICompleter(p, pc.APIKey, model, cfg.MaxTokens)
				if err != nil {
					slog.WarnContext(ctx, "failed to create completer", "provider", p, "model", model, "error", err)
					continue
				}
				if c != nil {
					chain = append(chain, c)
				}
			}

		default:
			slog.WarnContext(ctx, "unknown LLM provider ignored", "provider", p)
		}
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured for fallback")
	} else {
		slog.InfoContext(ctx, "fallback completer configured",
			"primary", chain[0].Provider(),
			"chainSize", len(chain))
	}

	return NewFallbackCompleter(cfg.RetryConfig, m, chain...)
}

// DefaultLLMConfig returns a default LLM configuration.
// API keys must be provided separately.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Providers:   DefaultProviders,
		Gemini:      ProviderConfig{Models: DefaultGeminiModels},
		Groq:        ProviderConfig{Models: DefaultGroqModels},
		Cerebras:    ProviderConfig{Models: DefaultCerebrasModels},
		MaxTokens:   DefaultMaxTokens,
		RetryConfig: DefaultRetryConfig(),
	}
}

func modelsOrDefault(models, defaults []string) []string {
	if len(models) > 0 {
		return models
	}
	return defaults
}

// hasCredentials reports whether a Querier that can check its own
// credentials has them. Queriers without a check are assumed ready.
func hasCredentials(q Querier) bool {
	checker, ok := q.(interface{ CheckCredentials() error })
	return !ok || checker.CheckCredentials() == nil
}
