package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutRelationships(t *testing.T) {
	t.Parallel()

	assert.Greater(t, HTTPWrite, LookupRequest, "write timeout must cover a full lookup")
	assert.Greater(t, LookupRequest, CreateAIRequest, "a lookup spans at least one CreateAI call")
	assert.GreaterOrEqual(t, SharedRetrieval, CreateAIRequest, "a shared retrieval must outlast one CreateAI call")
	assert.Less(t, SharedRetrieval, LookupRequest)
	assert.Greater(t, HTTPIdle, HTTPRead)
	assert.Greater(t, CorpusPoll, RateLimiterCleanup)
	assert.Positive(t, GracefulShutdown)
	assert.Positive(t, TCGFetch)
	assert.Positive(t, CorpusIngest)
}
