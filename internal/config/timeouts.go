package config

import "time"

// HTTP server
const (
	// LookupRequest bounds one lookup, including a fallback call that may walk
	// several providers.
	LookupRequest = 90 * time.Second

	HTTPRead  = 15 * time.Second
	HTTPWrite = LookupRequest + 10*time.Second
	HTTPIdle  = 120 * time.Second

	// GracefulShutdown lets in-flight lookups finish.
	GracefulShutdown = 30 * time.Second
)

// Upstream calls
const (
	// CreateAIRequest is the per-request timeout for /search and /query.
	CreateAIRequest = 60 * time.Second

	// SharedRetrieval bounds a deduplicated retrieval that outlives the
	// caller that started it.
	SharedRetrieval = CreateAIRequest + 5*time.Second

	// TCGFetch bounds one TCG page download.
	TCGFetch = 30 * time.Second
)

// Background jobs
const (
	// CorpusPoll is how often the R2 catalog export is checked for changes.
	CorpusPoll = 15 * time.Minute

	// CorpusIngest bounds a full ingest of one export at startup.
	CorpusIngest = 5 * time.Minute

	// RateLimiterCleanup is how often idle client limiters are evicted.
	RateLimiterCleanup = 5 * time.Minute
)
