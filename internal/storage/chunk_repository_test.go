package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveChunksBatch_Upsert(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	require.NoError(t, db.SaveChunksBatch(ctx, nil))
	require.NoError(t, db.SaveChunksBatch(ctx, []Chunk{
		{SourceName: "b.csv", ChunkNumber: 1, Content: "b1"},
		{SourceName: "a.csv", ChunkNumber: 0, Content: "a0"},
		{SourceName: "b.csv", ChunkNumber: 0, Content: "b0"},
	}))
	require.NoError(t, db.SaveChunksBatch(ctx, []Chunk{{SourceName: "a.csv", ChunkNumber: 0, Content: "a0 v2"}}))

	got, err := db.GetAllEvidence(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a.csv::0::0", got[0].ID)
	assert.Equal(t, "a0 v2", got[0].Text)
	assert.Equal(t, "b.csv::0::0", got[1].ID)
	assert.Equal(t, "b.csv::0::1", got[2].ID)
	assert.Zero(t, got[0].Score)
}

func TestReplaceSource(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	require.NoError(t, db.SaveChunksBatch(ctx, []Chunk{
		{SourceName: "cat.csv", ChunkNumber: 0, Content: "old 0"},
		{SourceName: "cat.csv", ChunkNumber: 1, Content: "old 1"},
		{SourceName: "other.csv", ChunkNumber: 0, Content: "keep"},
	}))

	require.NoError(t, db.ReplaceSource(ctx, "cat.csv", []Chunk{{ChunkNumber: 0, Content: "new 0"}}))

	n, err := db.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := db.GetAllEvidence(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new 0", got[0].Text)
	assert.Equal(t, "keep", got[1].Text)
}

func TestChunkID(t *testing.T) {
	t.Parallel()
	c := Chunk{SourceName: "catalog.csv", ChunkNumber: 12, Content: "x"}
	assert.Equal(t, "catalog.csv::0::12", c.ID())
	assert.Equal(t, "x", c.Evidence().Text)
}
