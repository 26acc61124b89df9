package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()
	ex := NewExtractor("")

	t.Run("lecture record", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(avcChunkText, Query{Institution: "Antelope Valley College", Subject: "BIOL", Number: "2251"})
		require.NotNil(t, rec)

		assert.Equal(t, "ANTELOPE VALLEY COLL", rec.Institution)
		assert.Equal(t, "BIOL", rec.Subject)
		assert.Equal(t, "2251", rec.Number)
		assert.Equal(t, "Human Anatomy", rec.Title)
		assert.Equal(t, "Study of the structure of the human body including cells, tissues, organs and systems.", rec.Description)
		assert.False(t, rec.IsVariant)
		assert.Equal(t, "base-anchor/tight-row", rec.Strategy)

		require.Len(t, rec.Matches, 1)
		assert.Equal(t, "BIO", rec.Matches[0].Subject)
		assert.Equal(t, "201", rec.Matches[0].Number)
		assert.Equal(t, "Human Anatomy and Physiology I", rec.Matches[0].Title)
		assert.Equal(t, "4", rec.Matches[0].Hours.String())
	})

	t.Run("mixed-case institution", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(mixedCaseRow, Query{Institution: "Antelope Valley College", Subject: "BIOL", Number: "2251"})
		require.NotNil(t, rec)

		assert.Equal(t, "Antelope Valley Coll", rec.Institution)
		assert.Equal(t, "Human Anatomy", rec.Title)
		assert.Equal(t, "base-anchor/tight-row", rec.Strategy)
		require.Len(t, rec.Matches, 1)
		assert.Equal(t, "BIO::201", rec.Matches[0].Key())
	})

	t.Run("lab record by exact suffix", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(avcChunkText, Query{Institution: "Antelope Valley College", Subject: "biol", Number: "2251l"})
		require.NotNil(t, rec)

		assert.Equal(t, "2251L", rec.Number)
		assert.Equal(t, "L", rec.Suffix)
		assert.Equal(t, "L", rec.RequestedSuffix)
		assert.False(t, rec.IsVariant)
		assert.Equal(t, "Human Anatomy Laboratory", rec.Title)
		assert.Equal(t, "exact-suffix-anchor/tight-row", rec.Strategy)
		require.Len(t, rec.Matches, 1)
		assert.Equal(t, "201L", rec.Matches[0].Number)
	})

	t.Run("lab requested but only lecture indexed", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(avcLectureRow, Query{Subject: "BIOL", Number: "2251L"})
		require.NotNil(t, rec)

		assert.True(t, rec.IsVariant)
		assert.Equal(t, "2251", rec.Number)
		assert.Equal(t, "", rec.Suffix)
		assert.Equal(t, "L", rec.RequestedSuffix)
	})

	t.Run("sentinel equivalents are dropped", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(avcChunkText, Query{Subject: "CHEM", Number: "101"})
		require.NotNil(t, rec)
		assert.Equal(t, "General Chemistry", rec.Title)
		assert.Empty(t, rec.Matches)
	})

	t.Run("other institution rejected", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(cerritosRow, Query{Institution: "Antelope Valley College", Subject: "BIOL", Number: "2251"})
		assert.Nil(t, rec)
	})

	t.Run("skips foreign record in mixed chunk", func(t *testing.T) {
		t.Parallel()
		text := cerritosRow + "\n" + avcLectureRow
		rec := ex.Extract(text, Query{Institution: "Antelope Valley College", Subject: "BIOL", Number: "2251"})
		require.NotNil(t, rec)
		assert.Equal(t, "ANTELOPE VALLEY COLL", rec.Institution)
		require.Len(t, rec.Matches, 1)
		assert.Equal(t, "201", rec.Matches[0].Number)
	})

	t.Run("target record requested by full name", func(t *testing.T) {
		t.Parallel()
		text := avcLectureRow + "\n" + asuOwnRow
		for _, inst := range []string{"Arizona State University", "ASU", "arizona state univ"} {
			rec := ex.Extract(text, Query{Institution: inst, Subject: "BIO", Number: "201"})
			require.NotNil(t, rec, inst)
			assert.Equal(t, "ASU", rec.Institution, inst)
			assert.Equal(t, "Human Anatomy and Physiology I", rec.Title, inst)
		}
		assert.Nil(t, ex.Extract(asuOwnRow, Query{Institution: "Antelope Valley College", Subject: "BIO", Number: "201"}))
	})

	t.Run("no canonical token", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(`BIOL,2251,Human Anatomy,"A description that has no canonical anchor in front of it at all."`,
			Query{Subject: "BIOL", Number: "2251"})
		assert.Nil(t, rec)
	})

	t.Run("number prefix is not a match", func(t *testing.T) {
		t.Parallel()
		rec := ex.Extract(avcChunkText, Query{Subject: "BIOL", Number: "225"})
		assert.Nil(t, rec)
	})

	t.Run("missing subject or number", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, ex.Extract(avcChunkText, Query{Number: "2251"}))
		assert.Nil(t, ex.Extract(avcChunkText, Query{Subject: "BIOL", Number: "LAB"}))
	})
}

func TestExtractor_DescriptionFixture(t *testing.T) {
	t.Parallel()
	text := `ANTELOPE VALLEY COLL::BIOL::2251,ANTELOPE VALLEY COLL,BIOL,2251,Human Anatomy,"Description text of at least 50 chars here, covering the body."`

	rec := NewExtractor("ASU").Extract(text, Query{Subject: "BIOL", Number: "2251"})
	require.NotNil(t, rec)
	assert.Equal(t, "Description text of at least 50 chars here, covering the body.", rec.Description)
	assert.False(t, rec.IsVariant)
}

func TestExtractor_LooseFallback(t *testing.T) {
	t.Parallel()
	// A short quoted note after the title defeats the tight pattern.
	text := `ANTELOPE VALLEY COLL::HIST::107,ANTELOPE VALLEY COLL,HIST,107,US History,"See catalog",3,"Survey of United States history from colonial origins through reconstruction era."`

	rec := NewExtractor("").Extract(text, Query{Subject: "HIST", Number: "107"})
	require.NotNil(t, rec)
	assert.Equal(t, "base-anchor/loose", rec.Strategy)
	assert.Equal(t, "US History", rec.Title)
	assert.Equal(t, "Survey of United States history from colonial origins through reconstruction era.", rec.Description)
}

func TestExtractor_StrategyNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		[]string{"exact-suffix-anchor", "base-anchor", "tight-row", "loose"},
		NewExtractor("").StrategyNames())
}
