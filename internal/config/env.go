package config

// Environment variable keys.
//
//nolint:gosec // Keys are names, not credentials.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvLookupTimeout   = "LOOKUP_TIMEOUT"
	EnvBatchMaxQueries = "BATCH_MAX_QUERIES"
	EnvBatchParallel   = "BATCH_PARALLELISM"
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"

	// CreateAI
	EnvCreateAIToken      = "CREATEAI_TOKEN"
	EnvCreateAIBaseURL    = "CREATEAI_BASE_URL"
	EnvCreateAICollection = "CREATEAI_COLLECTION"
	EnvCreateAIProvider   = "CREATEAI_MODEL_PROVIDER"
	EnvCreateAIModel      = "CREATEAI_MODEL_NAME"
	EnvCreateAITopK       = "CREATEAI_TOP_K"

	// Matching
	EnvTrustScore           = "MATCH_TRUST_SCORE"
	EnvMinRatio             = "MATCH_MIN_RATIO"
	EnvScanLimit            = "MATCH_SCAN_LIMIT"
	EnvWideScanLimit        = "MATCH_WIDE_SCAN_LIMIT"
	EnvMinDescriptionLength = "MATCH_MIN_DESCRIPTION_LENGTH"
	EnvTargetInstitution    = "MATCH_TARGET_INSTITUTION"
	EnvContextChunks        = "FALLBACK_CONTEXT_CHUNKS"
	EnvContextBudget        = "FALLBACK_CONTEXT_BUDGET"
	EnvMaxMatches           = "MATCH_MAX_MATCHES"

	// Retrieval and corpus
	EnvRetrievalMode    = "RETRIEVAL_MODE"
	EnvBM25TopN         = "BM25_TOP_N"
	EnvDataDir          = "DATA_DIR"
	EnvCorpusFile       = "CORPUS_FILE"
	EnvCorpusObjectKey  = "CORPUS_OBJECT_KEY"
	EnvCorpusPerChunk   = "CORPUS_RECORDS_PER_CHUNK"
	EnvCorpusPollPeriod = "CORPUS_POLL_INTERVAL"

	// LLM fallback
	EnvLLMProviders   = "LLM_PROVIDERS"
	EnvLLMMaxTokens   = "LLM_MAX_TOKENS"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvGeminiModels   = "GEMINI_MODELS"
	EnvGroqAPIKey     = "GROQ_API_KEY"
	EnvGroqModels     = "GROQ_MODELS"
	EnvCerebrasAPIKey = "CEREBRAS_API_KEY"
	EnvCerebrasModels = "CEREBRAS_MODELS"

	// Rate limits
	EnvGlobalRateRPS    = "GLOBAL_RATE_RPS"
	EnvClientRateBurst  = "CLIENT_RATE_BURST"
	EnvClientRateRefill = "CLIENT_RATE_REFILL_PER_SEC"
	EnvLLMRateBurst     = "LLM_RATE_BURST"
	EnvLLMRateRefill    = "LLM_RATE_REFILL_PER_HOUR"
	EnvLLMRateDaily     = "LLM_RATE_DAILY"

	// R2
	EnvR2Endpoint        = "R2_ENDPOINT"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"

	// Sentry
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_SOURCE_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"
)
