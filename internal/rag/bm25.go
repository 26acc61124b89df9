package rag

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// BackendBM25 labels retrieval metrics for the local index.
const BackendBM25 = "bm25"

// DefaultTopN matches the hosted search top_k.
const DefaultTopN = 10

// BM25Index provides keyword search over the local catalog corpus.
// Scores are raw BM25 values; only their order is meaningful.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	docs        []catalog.EvidenceChunk
	topN        int
	logger      *logger.Logger
	metrics     *metrics.Metrics
	mu          sync.RWMutex
	initialized bool
}

// NewBM25Index creates an empty index. topN <= 0 selects DefaultTopN.
func NewBM25Index(log *logger.Logger, m *metrics.Metrics, topN int) *BM25Index {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &BM25Index{logger: log, metrics: m, topN: topN}
}

// Initialize replaces the indexed corpus. Chunks without a single
// letter or digit are skipped; the scorer rejects empty documents.
func (idx *BM25Index) Initialize(chunks []catalog.EvidenceChunk) error {
	if idx == nil {
		return nil
	}

	docs := make([]catalog.EvidenceChunk, 0, len(chunks))
	corpus := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(tokenize(c.Text)) == 0 {
			continue
		}
		c.Score = 0
		docs = append(docs, c)
		corpus = append(corpus, c.Text)
	}

	var okapi *bm25.BM25Okapi
	if len(corpus) > 0 {
		// k1=1.5, b=0.75 are standard BM25 parameters
		var err error
		okapi, err = bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
		if err != nil {
			return fmt.Errorf("failed to create BM25 index: %w", err)
		}
	}

	idx.mu.Lock()
	idx.docs = docs
	idx.bm25Okapi = okapi
	idx.initialized = true
	idx.mu.Unlock()

	idx.metrics.SetCorpusChunks(len(docs))
	if idx.logger != nil {
		idx.logger.WithField("docs", len(docs)).Info("BM25 index initialized")
	}
	return nil
}

// Search returns up to topN chunks with a positive score, best first.
func (idx *BM25Index) Search(query string, topN int) ([]catalog.EvidenceChunk, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	var results []catalog.EvidenceChunk
	for i, score := range scores {
		if score <= 0 || i >= len(idx.docs) {
			continue
		}
		doc := idx.docs[i]
		doc.Score = score
		results = append(results, doc)
	}
	SortByScore(results)

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// Retrieve implements Retriever with the configured topN.
func (idx *BM25Index) Retrieve(_ context.Context, query string) ([]catalog.EvidenceChunk, error) {
	start := time.Now()
	chunks, err := idx.Search(query, idx.topN)
	status := "success"
	if err != nil {
		status = "error"
	}
	idx.metrics.RecordRetrieval(BackendBM25, status, time.Since(start).Seconds())
	return chunks, err
}

// IsEnabled reports whether the index holds a searchable corpus.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of indexed chunks.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// tokenize lower-cases text and splits on anything that is not a letter or
// digit, so "AVC::BIOL::2251L" yields avc, biol, 2251l. Tokens that start
// with digits and carry a letter suffix also emit the bare digits, letting a
// query for 2251 reach the 2251L record.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, f)
		end := strings.IndexFunc(f, func(r rune) bool { return !unicode.IsDigit(r) })
		if end > 0 {
			tokens = append(tokens, f[:end])
		}
	}
	return slices.Clip(tokens)
}
