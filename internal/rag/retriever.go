// Package rag retrieves ranked catalog evidence for a course lookup.
//
// Two backends are provided: the hosted CreateAI search endpoint and a local
// BM25 index built from the ingested catalog corpus. Both return
// catalog.EvidenceChunk slices sorted by descending score.
package rag

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/config"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// Retriever returns evidence chunks for a free-text query, highest score first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]catalog.EvidenceChunk, error)
}

// Deduplicated wraps a Retriever with singleflight so concurrent lookups for
// the same query share a single upstream call.
//
// The shared call is detached from the caller that started it and bounded by
// timeout, so one caller going away never fails the others. Each caller still
// stops waiting when its own context ends.
type Deduplicated struct {
	next    Retriever
	group   singleflight.Group
	metrics *metrics.Metrics
	module  string
	timeout time.Duration
}

// NewDeduplicated wraps next. module labels the dedup metric.
func NewDeduplicated(next Retriever, m *metrics.Metrics, module string) *Deduplicated {
	return &Deduplicated{next: next, metrics: m, module: module, timeout: config.SharedRetrieval}
}

// Retrieve executes the wrapped retrieval once per distinct query in flight.
// Callers receive their own copy of the result slice.
func (d *Deduplicated) Retrieve(ctx context.Context, query string) ([]catalog.EvidenceChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))

	ch := d.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.next.Retrieve(shared, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			d.metrics.RecordSingleflightDedup(d.module)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		chunks, _ := res.Val.([]catalog.EvidenceChunk)
		return slices.Clone(chunks), nil
	}
}

// SortByScore orders chunks by descending score, keeping input order for ties.
func SortByScore(chunks []catalog.EvidenceChunk) {
	slices.SortStableFunc(chunks, func(a, b catalog.EvidenceChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
