// Package genai provides the language-model fallback used when deterministic
// catalog extraction is inconclusive.
//
// A completer answers a catalog question from retrieved evidence. Each
// provider walks its model chain with jittered retries before the chain
// moves on to the next provider in LLM_PROVIDERS. CreateAI uses the
// platform's /query endpoint, Gemini the official SDK, and Groq or
// Cerebras the OpenAI-compatible client.
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

// Supported providers. Groq and Cerebras speak the OpenAI API.
const (
	ProviderCreateAI Provider = "createai"
	ProviderGemini   Provider = "gemini"
	ProviderGroq     Provider = "groq"
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Request is one fallback completion: the free-text course query, the
// evidence context, and an optional description candidate found by the
// deterministic extractor.
type Request struct {
	Query     string
	Context   string
	Candidate string
}

// Completion is the raw model output and who produced it.
type Completion struct {
	Text     string
	Provider Provider
	Model    string
}

// Completer produces a raw text completion for a fallback request.
// The text is expected to hold a single JSON object; see ParseCatalogAnswer.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the completer.
	Close() error
}

// RetryConfig bounds retries of one model. Backoff uses full jitter.
type RetryConfig struct {
	// MaxAttempts counts the initial call.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// ProviderConfig configures one key-based provider. Models are tried in order.
type ProviderConfig struct {
	APIKey string
	Models []string
}

// LLMConfig configures the whole fallback chain.
type LLMConfig struct {
	// Providers is the chain order. Providers without credentials are skipped.
	Providers []Provider

	Gemini   ProviderConfig
	Groq     ProviderConfig
	Cerebras ProviderConfig

	// MaxTokens caps the completion length for every provider.
	MaxTokens   int
	RetryConfig RetryConfig
}

// Default model chains; the first model is primary.
var (
	DefaultGeminiModels   = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultGroqModels     = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
	DefaultCerebrasModels = []string{"llama-3.3-70b", "llama-3.1-8b"}

	DefaultProviders = []Provider{ProviderCreateAI, ProviderGemini, ProviderGroq, ProviderCerebras}
)

const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
	DefaultMaxTokens         = 2000
)

// HasProvider returns true if the specified key-based provider is configured.
// CreateAI is configured through its own client and is not reported here.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.GetProviderConfig(p)
	return pc != nil && pc.APIKey != ""
}

// GetProviderConfig returns the configuration for a specific provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	case ProviderCerebras:
		return &c.Cerebras
	default:
		return nil
	}
}
