package app

import (
	"log/slog"
	"strings"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/config"
	"github.com/garyellow/triangulator-go/internal/createai"
	"github.com/garyellow/triangulator-go/internal/genai"
	"github.com/garyellow/triangulator-go/internal/lookup"
	"github.com/garyellow/triangulator-go/internal/r2client"
	"github.com/garyellow/triangulator-go/internal/ratelimit"
)

// buildLookupConfig maps the matching settings onto the orchestrator config.
// Zero values are filled with defaults by the orchestrator.
func buildLookupConfig(cfg *config.Config) lookup.Config {
	m := cfg.Matching
	return lookup.Config{
		Presence: catalog.PresenceConfig{
			TrustScore: m.TrustScore,
			MinRatio:   m.MinRatio,
			ScanLimit:  m.ScanLimit,
		},
		WideScanLimit:        m.WideScanLimit,
		MinDescriptionLength: m.MinDescriptionLength,
		TargetInstitution:    m.TargetInstitution,
		ContextChunks:        m.ContextChunks,
		ContextBudget:        m.ContextBudget,
		MaxMatches:           m.MaxMatches,
	}
}

func buildCreateAIConfig(cfg *config.Config) createai.Config {
	c := cfg.CreateAI
	return createai.Config{
		BaseURL:       c.BaseURL,
		Token:         c.Token,
		Collection:    c.Collection,
		ModelProvider: c.ModelProvider,
		ModelName:     c.ModelName,
		TopK:          c.TopK,
		Timeout:       config.CreateAIRequest,
	}
}

// buildLLMConfig maps the fallback settings onto the genai config. Unknown
// provider names are logged and skipped.
func buildLLMConfig(cfg *config.Config) genai.LLMConfig {
	llmCfg := genai.DefaultLLMConfig()

	llmCfg.Gemini.APIKey = cfg.LLM.GeminiAPIKey
	llmCfg.Groq.APIKey = cfg.LLM.GroqAPIKey
	llmCfg.Cerebras.APIKey = cfg.LLM.CerebrasAPIKey

	if len(cfg.LLM.GeminiModels) > 0 {
		llmCfg.Gemini.Models = cfg.LLM.GeminiModels
	}
	if len(cfg.LLM.GroqModels) > 0 {
		llmCfg.Groq.Models = cfg.LLM.GroqModels
	}
	if len(cfg.LLM.CerebrasModels) > 0 {
		llmCfg.Cerebras.Models = cfg.LLM.CerebrasModels
	}
	if cfg.LLM.MaxTokens > 0 {
		llmCfg.MaxTokens = cfg.LLM.MaxTokens
	}

	if len(cfg.LLM.Providers) > 0 {
		providers := make([]genai.Provider, 0, len(cfg.LLM.Providers))
		for _, name := range cfg.LLM.Providers {
			switch p := genai.Provider(strings.ToLower(name)); p {
			case genai.ProviderCreateAI, genai.ProviderGemini, genai.ProviderGroq, genai.ProviderCerebras:
				providers = append(providers, p)
			default:
				slog.Warn("Ignoring unknown LLM provider", "name", name)
			}
		}
		if len(providers) > 0 {
			llmCfg.Providers = providers
		}
	}

	return llmCfg
}

func buildR2Config(cfg *config.Config) r2client.Config {
	return r2client.Config{
		Endpoint:    cfg.R2.Endpoint,
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	}
}

func buildClientLimiterConfig(cfg *config.Config) ratelimit.KeyedConfig {
	return ratelimit.KeyedConfig{
		Name:          ratelimit.NameClient,
		Burst:         cfg.RateLimit.ClientBurst,
		RefillRate:    cfg.RateLimit.ClientRefill,
		CleanupPeriod: config.RateLimiterCleanup,
	}
}

func buildLLMLimiterConfig(cfg *config.Config) ratelimit.KeyedConfig {
	return ratelimit.KeyedConfig{
		Name:          ratelimit.NameLLM,
		Burst:         cfg.RateLimit.LLMBurst,
		RefillRate:    cfg.RateLimit.LLMRefillPerHour / 3600,
		DailyLimit:    cfg.RateLimit.LLMDaily,
		CleanupPeriod: config.RateLimiterCleanup,
	}
}
