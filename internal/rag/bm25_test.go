package rag

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/logger"
)

var corpusFixture = []catalog.EvidenceChunk{
	{ID: "catalog.csv::0::0", Text: `ANTELOPE VALLEY COLL::BIOL::2251L,"Human Anatomy Lab","Laboratory dissection of human organ systems."`},
	{ID: "catalog.csv::0::1", Text: `PIMA CMTY COLL::MAT::220,"Calculus I","Limits, derivatives and integrals of one variable."`},
	{ID: "catalog.csv::0::2", Text: `MESA CMTY COLL::ENG::101,"First-Year Composition","Academic writing and argument."`},
	{ID: "catalog.csv::0::3", Text: "   "},
	{ID: "catalog.csv::0::4", Text: ` :: -- ""`},
}

func newTestIndex(t *testing.T) *BM25Index {
	t.Helper()
	idx := NewBM25Index(logger.NewWithWriter("error", io.Discard), nil, 0)
	require.NoError(t, idx.Initialize(corpusFixture))
	return idx
}

func TestNewBM25Index(t *testing.T) {
	t.Parallel()
	idx := NewBM25Index(nil, nil, 0)

	assert.False(t, idx.IsEnabled())
	assert.Equal(t, DefaultTopN, idx.topN)

	got, err := idx.Search("anything", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBM25Index_Initialize(t *testing.T) {
	t.Parallel()
	idx := newTestIndex(t)

	assert.True(t, idx.IsEnabled())
	assert.Equal(t, 3, idx.Count(), "chunks without words are skipped")

	empty := NewBM25Index(nil, nil, 0)
	require.NoError(t, empty.Initialize(nil))
	assert.False(t, empty.IsEnabled())
	assert.Equal(t, 0, empty.Count())
}

func TestBM25Index_Search(t *testing.T) {
	t.Parallel()
	idx := newTestIndex(t)

	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"institution and subject", "Antelope Valley BIOL 2251", "catalog.csv::0::0"},
		{"suffixed number by base", "2251", "catalog.csv::0::0"},
		{"title words", "calculus derivatives", "catalog.csv::0::1"},
		{"canonical token", "MESA CMTY COLL::ENG::101", "catalog.csv::0::2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := idx.Search(tt.query, 3)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.wantID, got[0].ID)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
		})
	}
}

func TestBM25Index_SearchEdgeCases(t *testing.T) {
	t.Parallel()
	idx := newTestIndex(t)

	got, err := idx.Search("  ::  ", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Search("zoology", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Retrieve(t.Context(), "antelope valley")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Positive(t, got[0].Score)
}

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"AVC::BIOL::2251L", []string{"avc", "biol", "2251l", "2251"}},
		{"ENG 101", []string{"eng", "101"}},
		{"  ", []string{}},
		{`"Intro, to: Go"`, []string{"intro", "to", "go"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.in), tt.in)
	}
}
