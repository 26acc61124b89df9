package rag

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/triangulator-go/internal/catalog"
)

type slowRetriever struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowRetriever) Retrieve(context.Context, string) ([]catalog.EvidenceChunk, error) {
	s.calls.Add(1)
	<-s.release
	return []catalog.EvidenceChunk{{ID: "a", Score: 1, Text: "t"}}, nil
}

func TestDeduplicated_SharesInFlightCalls(t *testing.T) {
	t.Parallel()

	inner := &slowRetriever{release: make(chan struct{})}
	d := NewDeduplicated(inner, nil, "retrieval")

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]catalog.EvidenceChunk, callers)
	for i := range callers {
		wg.Go(func() {
			got, err := d.Retrieve(t.Context(), "  AVC   biol 2251 ")
			assert.NoError(t, err)
			results[i] = got
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())
	for _, r := range results {
		require.Len(t, r, 1)
	}
	results[0][0].Text = "mutated"
	assert.Equal(t, "t", results[1][0].Text, "callers get independent slices")
}

func TestDeduplicated_CanceledContext(t *testing.T) {
	t.Parallel()

	inner := &slowRetriever{release: make(chan struct{})}
	close(inner.release)
	d := NewDeduplicated(inner, nil, "retrieval")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := d.Retrieve(ctx, "q")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), inner.calls.Load())
}

// gatedRetriever blocks until released and fails if its context ended first.
type gatedRetriever struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedRetriever) Retrieve(ctx context.Context, _ string) ([]catalog.EvidenceChunk, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []catalog.EvidenceChunk{{ID: "a", Score: 1, Text: "t"}}, nil
}

func TestDeduplicated_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	inner := &gatedRetriever{started: make(chan struct{}), release: make(chan struct{})}
	d := NewDeduplicated(inner, nil, "retrieval")

	ctxA, cancelA := context.WithCancel(t.Context())
	errA := make(chan error, 1)
	go func() {
		_, err := d.Retrieve(ctxA, "biol 2251")
		errA <- err
	}()
	<-inner.started

	type outcome struct {
		chunks []catalog.EvidenceChunk
		err    error
	}
	resB := make(chan outcome, 1)
	go func() {
		got, err := d.Retrieve(context.Background(), "BIOL 2251")
		resB <- outcome{got, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	close(inner.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Len(t, b.chunks, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestSortByScore(t *testing.T) {
	t.Parallel()
	chunks := []catalog.EvidenceChunk{
		{ID: "a", Score: 0.1}, {ID: "b", Score: 0.5}, {ID: "c", Score: 0.1}, {ID: "d", Score: 0.9},
	}
	SortByScore(chunks)

	var ids []string
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids)
}
