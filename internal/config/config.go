// Package config loads service settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Retrieval modes.
const (
	RetrievalCreateAI = "createai"
	RetrievalLocal    = "local"
)

// Config holds all service configuration.
type Config struct {
	Server      ServerConfig
	CreateAI    CreateAIConfig
	Matching    MatchingConfig
	Retrieval   RetrievalConfig
	Corpus      CorpusConfig
	LLM         LLMConfig
	RateLimit   RateLimitConfig
	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	LookupTimeout   time.Duration
	BatchMaxQueries int
	BatchParallel   int

	// MetricsPassword enables Basic Auth on /metrics when non-empty.
	MetricsUsername string
	MetricsPassword string
}

// CreateAIConfig configures the CreateAI platform client.
type CreateAIConfig struct {
	Token         string
	BaseURL       string
	Collection    string
	ModelProvider string
	ModelName     string
	TopK          int
}

// MatchingConfig holds the matching thresholds. Zero values select the
// engine defaults.
type MatchingConfig struct {
	TrustScore           float64
	MinRatio             float64
	ScanLimit            int
	WideScanLimit        int
	MinDescriptionLength int
	TargetInstitution    string
	ContextChunks        int
	ContextBudget        int
	MaxMatches           int
}

// RetrievalConfig selects the evidence backend.
type RetrievalConfig struct {
	// Mode is RetrievalCreateAI or RetrievalLocal.
	Mode string
	// BM25TopN bounds local results.
	BM25TopN int
}

// CorpusConfig configures the local evidence store.
type CorpusConfig struct {
	DataDir string
	// File is a catalog export ingested at startup.
	File string
	// ObjectKey is the catalog export in R2, polled every PollInterval.
	ObjectKey       string
	RecordsPerChunk int
	PollInterval    time.Duration
}

// LLMConfig configures the language-model fallback chain.
type LLMConfig struct {
	// Providers is the ordered fallback chain. Empty selects the default order.
	Providers []string
	MaxTokens int

	GeminiAPIKey   string
	GeminiModels   []string
	GroqAPIKey     string
	GroqModels     []string
	CerebrasAPIKey string
	CerebrasModels []string
}

// RateLimitConfig configures request throttling.
type RateLimitConfig struct {
	GlobalRPS        float64
	ClientBurst      float64
	ClientRefill     float64 // tokens per second
	LLMBurst         float64
	LLMRefillPerHour float64
	LLMDaily         int
}

// R2Config holds Cloudflare R2 credentials. All fields empty disables R2.
type R2Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

// Enabled reports whether any R2 setting is present.
func (c R2Config) Enabled() bool {
	return c.Endpoint != "" || c.AccessKeyID != "" || c.SecretAccessKey != "" || c.BucketName != ""
}

// SentryConfig configures error reporting. An empty token disables it.
type SentryConfig struct {
	Token       string
	Host        string
	Environment string
	SampleRate  float64
}

// BetterStackConfig configures the remote log sink.
type BetterStackConfig struct {
	Token    string
	Endpoint string
}

// Load reads configuration from .env and the environment and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(EnvPort, "10000"),
			LogLevel:        getEnv(EnvLogLevel, "info"),
			ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
			LookupTimeout:   getDurationEnv(EnvLookupTimeout, LookupRequest),
			BatchMaxQueries: getIntEnv(EnvBatchMaxQueries, 50),
			BatchParallel:   getIntEnv(EnvBatchParallel, 4),
			MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
			MetricsPassword: getEnv(EnvMetricsPassword, ""),
		},
		CreateAI: CreateAIConfig{
			Token:         getEnv(EnvCreateAIToken, ""),
			BaseURL:       getEnv(EnvCreateAIBaseURL, ""),
			Collection:    getEnv(EnvCreateAICollection, ""),
			ModelProvider: getEnv(EnvCreateAIProvider, ""),
			ModelName:     getEnv(EnvCreateAIModel, ""),
			TopK:          getIntEnv(EnvCreateAITopK, 0),
		},
		Matching: MatchingConfig{
			TrustScore:           getFloatEnv(EnvTrustScore, 0),
			MinRatio:             getFloatEnv(EnvMinRatio, 0),
			ScanLimit:            getIntEnv(EnvScanLimit, 0),
			WideScanLimit:        getIntEnv(EnvWideScanLimit, 0),
			MinDescriptionLength: getIntEnv(EnvMinDescriptionLength, 0),
			TargetInstitution:    getEnv(EnvTargetInstitution, ""),
			ContextChunks:        getIntEnv(EnvContextChunks, 0),
			ContextBudget:        getIntEnv(EnvContextBudget, 0),
			MaxMatches:           getIntEnv(EnvMaxMatches, 0),
		},
		Retrieval: RetrievalConfig{
			Mode:     strings.ToLower(getEnv(EnvRetrievalMode, RetrievalCreateAI)),
			BM25TopN: getIntEnv(EnvBM25TopN, 10),
		},
		Corpus: CorpusConfig{
			DataDir:         getEnv(EnvDataDir, defaultDataDir()),
			File:            getEnv(EnvCorpusFile, ""),
			ObjectKey:       getEnv(EnvCorpusObjectKey, ""),
			RecordsPerChunk: getIntEnv(EnvCorpusPerChunk, 5),
			PollInterval:    getDurationEnv(EnvCorpusPollPeriod, CorpusPoll),
		},
		LLM: LLMConfig{
			Providers:      getListEnv(EnvLLMProviders),
			MaxTokens:      getIntEnv(EnvLLMMaxTokens, 0),
			GeminiAPIKey:   getEnv(EnvGeminiAPIKey, ""),
			GeminiModels:   getListEnv(EnvGeminiModels),
			GroqAPIKey:     getEnv(EnvGroqAPIKey, ""),
			GroqModels:     getListEnv(EnvGroqModels),
			CerebrasAPIKey: getEnv(EnvCerebrasAPIKey, ""),
			CerebrasModels: getListEnv(EnvCerebrasModels),
		},
		RateLimit: RateLimitConfig{
			GlobalRPS:        getFloatEnv(EnvGlobalRateRPS, 50),
			ClientBurst:      getFloatEnv(EnvClientRateBurst, 30),
			ClientRefill:     getFloatEnv(EnvClientRateRefill, 0.5),
			LLMBurst:         getFloatEnv(EnvLLMRateBurst, 20),
			LLMRefillPerHour: getFloatEnv(EnvLLMRateRefill, 30),
			LLMDaily:         getIntEnv(EnvLLMRateDaily, 200),
		},
		R2: R2Config{
			Endpoint:        getEnv(EnvR2Endpoint, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
		},
		Sentry: SentryConfig{
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, ""),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},
		BetterStack: BetterStackConfig{
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout))
	}
	if c.Server.LookupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %v", c.Server.LookupTimeout))
	}
	if c.Server.BatchMaxQueries <= 0 {
		errs = append(errs, fmt.Errorf("BATCH_MAX_QUERIES must be positive, got %d", c.Server.BatchMaxQueries))
	}
	if c.Server.BatchParallel <= 0 {
		errs = append(errs, fmt.Errorf("BATCH_PARALLELISM must be positive, got %d", c.Server.BatchParallel))
	}

	switch c.Retrieval.Mode {
	case RetrievalCreateAI:
	case RetrievalLocal:
		if c.Corpus.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for local retrieval"))
		}
		if c.Corpus.File == "" && c.Corpus.ObjectKey == "" {
			errs = append(errs, errors.New("CORPUS_FILE or CORPUS_OBJECT_KEY is required for local retrieval"))
		}
	default:
		errs = append(errs, fmt.Errorf("RETRIEVAL_MODE must be %q or %q, got %q", RetrievalCreateAI, RetrievalLocal, c.Retrieval.Mode))
	}

	if c.Matching.MinRatio < 0 || c.Matching.MinRatio > 1 {
		errs = append(errs, fmt.Errorf("MATCH_MIN_RATIO must be within [0, 1], got %v", c.Matching.MinRatio))
	}
	if c.Matching.TrustScore < 0 {
		errs = append(errs, fmt.Errorf("MATCH_TRUST_SCORE cannot be negative, got %v", c.Matching.TrustScore))
	}
	if c.Corpus.RecordsPerChunk <= 0 {
		errs = append(errs, fmt.Errorf("CORPUS_RECORDS_PER_CHUNK must be positive, got %d", c.Corpus.RecordsPerChunk))
	}
	if c.Corpus.ObjectKey != "" && !c.R2.Enabled() {
		errs = append(errs, errors.New("CORPUS_OBJECT_KEY requires R2 credentials"))
	}

	if c.RateLimit.GlobalRPS <= 0 {
		errs = append(errs, fmt.Errorf("GLOBAL_RATE_RPS must be positive, got %v", c.RateLimit.GlobalRPS))
	}
	if c.RateLimit.ClientBurst <= 0 || c.RateLimit.ClientRefill <= 0 {
		errs = append(errs, errors.New("CLIENT_RATE_BURST and CLIENT_RATE_REFILL_PER_SEC must be positive"))
	}
	if c.RateLimit.LLMBurst <= 0 || c.RateLimit.LLMRefillPerHour <= 0 {
		errs = append(errs, errors.New("LLM_RATE_BURST and LLM_RATE_REFILL_PER_HOUR must be positive"))
	}
	if c.RateLimit.LLMDaily < 0 {
		errs = append(errs, fmt.Errorf("LLM_RATE_DAILY cannot be negative, got %d", c.RateLimit.LLMDaily))
	}

	if c.Sentry.Token != "" && c.Sentry.Host == "" {
		errs = append(errs, errors.New("SENTRY_HOST is required when SENTRY_TOKEN is set"))
	}

	return errors.Join(errs...)
}

// SQLitePath returns the corpus database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Corpus.DataDir, "corpus.db")
}

// HasLLMProvider reports whether any fallback provider has credentials.
func (c *Config) HasLLMProvider() bool {
	return c.CreateAI.Token != "" || c.LLM.GeminiAPIKey != "" || c.LLM.GroqAPIKey != "" || c.LLM.CerebrasAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping empty items.
func getListEnv(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
