package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyellow/triangulator-go/internal/catalog"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// BackendCreateAI labels retrieval metrics for the hosted search endpoint.
const BackendCreateAI = "createai"

// Searcher is the subset of the CreateAI client used for retrieval.
type Searcher interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// CreateAIRetriever adapts the CreateAI search endpoint to Retriever.
type CreateAIRetriever struct {
	searcher Searcher
	metrics  *metrics.Metrics
}

// NewCreateAIRetriever creates a retriever backed by s.
func NewCreateAIRetriever(s Searcher, m *metrics.Metrics) *CreateAIRetriever {
	return &CreateAIRetriever{searcher: s, metrics: m}
}

// Retrieve runs a search and normalizes the hits.
// Failures wrap ErrRetrievalFailed.
func (r *CreateAIRetriever) Retrieve(ctx context.Context, query string) ([]catalog.EvidenceChunk, error) {
	start := time.Now()

	raw, err := r.searcher.Search(ctx, query)
	if err != nil {
		r.metrics.RecordRetrieval(BackendCreateAI, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %w", domerrors.ErrRetrievalFailed, err)
	}

	chunks, err := NormalizeHits(raw)
	if err != nil {
		r.metrics.RecordRetrieval(BackendCreateAI, "malformed", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %w", domerrors.ErrRetrievalFailed, err)
	}

	r.metrics.RecordRetrieval(BackendCreateAI, "success", time.Since(start).Seconds())
	return chunks, nil
}

// hit covers both flat hits and OpenSearch-style hits with a _source object.
type hit struct {
	Content     *string         `json:"content"`
	SourceName  *string         `json:"source_name"`
	Index       json.RawMessage `json:"_index"`
	Score       json.RawMessage `json:"score"`
	RawScore    json.RawMessage `json:"_score"`
	PageNumber  json.RawMessage `json:"page_number"`
	ChunkNumber json.RawMessage `json:"chunk_number"`
	Source      *struct {
		Content     *string         `json:"content"`
		SourceName  *string         `json:"source_name"`
		PageNumber  json.RawMessage `json:"page_number"`
		ChunkNumber json.RawMessage `json:"chunk_number"`
	} `json:"_source"`
}

// NormalizeHits converts a search response into evidence chunks sorted by
// descending score.
//
// Accepted shapes, in order of preference: {"response": [...]},
// {"response": {"response": [...]}}, {"hits": [...]},
// {"response": {"hits": [...]}}, then the first array-valued top-level field.
// Hits may be bare strings or objects.
func NormalizeHits(raw json.RawMessage) ([]catalog.EvidenceChunk, error) {
	items, err := hitArray(raw)
	if err != nil {
		return nil, err
	}

	chunks := make([]catalog.EvidenceChunk, 0, len(items))
	for i, item := range items {
		chunks = append(chunks, normalizeHit(item, i))
	}
	SortByScore(chunks)
	return chunks, nil
}

func hitArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var top struct {
		Response json.RawMessage `json:"response"`
		Hits     json.RawMessage `json:"hits"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: search response is not an object: %w", domerrors.ErrMalformedResponse, err)
	}

	if arr, ok := asArray(top.Response); ok {
		return arr, nil
	}

	var nested struct {
		Response json.RawMessage `json:"response"`
		Hits     json.RawMessage `json:"hits"`
	}
	responseIsObject := isObject(top.Response) && json.Unmarshal(top.Response, &nested) == nil
	if responseIsObject {
		if arr, ok := asArray(nested.Response); ok {
			return arr, nil
		}
	}
	if arr, ok := asArray(top.Hits); ok {
		return arr, nil
	}
	if responseIsObject {
		if arr, ok := asArray(nested.Hits); ok {
			return arr, nil
		}
	}

	if arr, ok := firstArrayField(raw); ok {
		return arr, nil
	}
	return nil, fmt.Errorf("%w: no array of hits in search response", domerrors.ErrMalformedResponse)
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// firstArrayField walks the top-level object in document order and returns
// the first array value.
func firstArrayField(raw json.RawMessage) ([]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		if arr, ok := asArray(value); ok {
			return arr, true
		}
	}
	return nil, false
}

func normalizeHit(item json.RawMessage, idx int) catalog.EvidenceChunk {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return catalog.EvidenceChunk{
			ID:   fmt.Sprintf("unknown::0::%d", idx),
			Text: text,
		}
	}

	var h hit
	if err := json.Unmarshal(item, &h); err != nil {
		return catalog.EvidenceChunk{ID: fmt.Sprintf("unknown::0::%d", idx)}
	}

	content := deref(h.Content)
	source := deref(h.SourceName)
	page := rawScalar(h.PageNumber)
	chunk := rawScalar(h.ChunkNumber)
	if h.Source != nil {
		if content == "" {
			content = deref(h.Source.Content)
		}
		if source == "" {
			source = deref(h.Source.SourceName)
		}
		if page == "" {
			page = rawScalar(h.Source.PageNumber)
		}
		if chunk == "" {
			chunk = rawScalar(h.Source.ChunkNumber)
		}
	}
	if source == "" {
		source = rawScalar(h.Index)
	}
	if source == "" {
		source = "unknown"
	}
	if page == "" {
		page = "0"
	}
	if chunk == "" {
		chunk = strconv.Itoa(idx)
	}

	score := parseScore(h.Score)
	if len(bytes.TrimSpace(h.Score)) == 0 || string(bytes.TrimSpace(h.Score)) == "null" {
		score = parseScore(h.RawScore)
	}

	return catalog.EvidenceChunk{
		ID:    source + "::" + page + "::" + chunk,
		Score: score,
		Text:  content,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rawScalar renders a JSON string or number without quotes. Null, objects
// and arrays yield "".
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func parseScore(raw json.RawMessage) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(rawScalar(raw)), 64)
	if err != nil {
		return 0
	}
	return v
}
