package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "10000",
			ShutdownTimeout: GracefulShutdown,
			LookupTimeout:   LookupRequest,
			BatchMaxQueries: 50,
			BatchParallel:   4,
		},
		Retrieval: RetrievalConfig{Mode: RetrievalCreateAI},
		Corpus:    CorpusConfig{DataDir: "/data", RecordsPerChunk: 5},
		RateLimit: RateLimitConfig{
			GlobalRPS:        50,
			ClientBurst:      30,
			ClientRefill:     0.5,
			LLMBurst:         20,
			LLMRefillPerHour: 30,
			LLMDaily:         200,
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvPort, EnvRetrievalMode, EnvLLMProviders, EnvCorpusObjectKey, EnvSentryToken} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Server.Port)
	assert.Equal(t, GracefulShutdown, cfg.Server.ShutdownTimeout)
	assert.Equal(t, RetrievalCreateAI, cfg.Retrieval.Mode)
	assert.Equal(t, 5, cfg.Corpus.RecordsPerChunk)
	assert.Equal(t, CorpusPoll, cfg.Corpus.PollInterval)
	assert.Empty(t, cfg.LLM.Providers)
	assert.Zero(t, cfg.Matching.TrustScore, "zero selects the engine default")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvRetrievalMode, "LOCAL")
	t.Setenv(EnvCorpusFile, "/data/catalog.csv")
	t.Setenv(EnvTrustScore, "4.5")
	t.Setenv(EnvScanLimit, "12")
	t.Setenv(EnvLookupTimeout, "45s")
	t.Setenv(EnvLLMProviders, " gemini, ,groq ")
	t.Setenv(EnvGroqModels, "llama-3.3-70b-versatile,openai/gpt-oss-20b")
	t.Setenv(EnvCreateAIToken, "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, RetrievalLocal, cfg.Retrieval.Mode)
	assert.InDelta(t, 4.5, cfg.Matching.TrustScore, 0)
	assert.Equal(t, 12, cfg.Matching.ScanLimit)
	assert.Equal(t, 45*time.Second, cfg.Server.LookupTimeout)
	assert.Equal(t, []string{"gemini", "groq"}, cfg.LLM.Providers)
	assert.Equal(t, []string{"llama-3.3-70b-versatile", "openai/gpt-oss-20b"}, cfg.LLM.GroqModels)
	assert.True(t, cfg.HasLLMProvider())
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv(EnvRetrievalMode, "")
	t.Setenv(EnvBatchParallel, "many")
	t.Setenv(EnvShutdownTimeout, "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Server.BatchParallel)
	assert.Equal(t, GracefulShutdown, cfg.Server.ShutdownTimeout)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv(EnvRetrievalMode, "vector")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRIEVAL_MODE")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"valid", func(*Config) {}, nil},
		{"missing port", func(c *Config) { c.Server.Port = "" }, []string{"PORT is required"}},
		{"bad batch", func(c *Config) { c.Server.BatchParallel = 0 }, []string{"BATCH_PARALLELISM"}},
		{"unknown mode", func(c *Config) { c.Retrieval.Mode = "faiss" }, []string{"RETRIEVAL_MODE"}},
		{"local without corpus", func(c *Config) { c.Retrieval.Mode = RetrievalLocal }, []string{"CORPUS_FILE or CORPUS_OBJECT_KEY"}},
		{"local with file", func(c *Config) {
			c.Retrieval.Mode = RetrievalLocal
			c.Corpus.File = "catalog.csv"
		}, nil},
		{"object key without r2", func(c *Config) { c.Corpus.ObjectKey = "exports/catalog.csv.zst" }, []string{"requires R2"}},
		{"ratio out of range", func(c *Config) { c.Matching.MinRatio = 1.5 }, []string{"MATCH_MIN_RATIO"}},
		{"sentry without host", func(c *Config) { c.Sentry.Token = "t" }, []string{"SENTRY_HOST"}},
		{"several problems", func(c *Config) {
			c.Server.Port = ""
			c.RateLimit.GlobalRPS = 0
			c.RateLimit.LLMDaily = -1
		}, []string{"PORT", "GLOBAL_RATE_RPS", "LLM_RATE_DAILY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestR2Config_Enabled(t *testing.T) {
	t.Parallel()
	assert.False(t, R2Config{}.Enabled())
	assert.True(t, R2Config{BucketName: "catalog"}.Enabled())
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Corpus.DataDir = "/var/lib/triangulator"
	assert.Equal(t, "/var/lib/triangulator/corpus.db", cfg.SQLitePath())
}
