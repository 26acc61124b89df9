package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

const sampleAnswer = `{
  "catalog_status": "found",
  "subject": "BIOL",
  "number": 2251,
  "title": "Human Anatomy",
  "input_course_description": "Structure of the human body.",
  "candidate_description_used": "",
  "matches": {
    "match_2": { "subject": "BIO", "number": "202", "title": "A&P II", "description": "" },
    "match_1": { "subject": "BIO", "number": "201.0", "title": "A&P I", "description": "" },
    "match_3": { "subject": "", "number": "", "title": "", "description": "" }
  }
}`

func TestParseCatalogAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"bare", sampleAnswer},
		{"json fence", "```json\n" + sampleAnswer + "\n```"},
		{"plain fence", "```\n" + sampleAnswer + "\n```"},
		{"surrounding prose", "Here is the result:\n" + sampleAnswer + "\nThanks."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ParseCatalogAnswer(tt.text)
			require.NoError(t, err)
			assert.Equal(t, Text("BIOL"), a.Subject)
			assert.Equal(t, Text("2251"), a.Number)
			require.Len(t, a.Matches, 3)
			assert.Equal(t, Text("201.0"), a.Matches[0].Number)
			assert.Equal(t, Text("202"), a.Matches[1].Number)
			assert.True(t, a.Matches[2].Empty())
			assert.False(t, a.CatalogMissing())
		})
	}
}

func TestParseCatalogAnswer_MatchesArray(t *testing.T) {
	t.Parallel()
	a, err := ParseCatalogAnswer(`{"catalog_status":"found","matches":[{"subject":"ENG","number":"101"}]}`)
	require.NoError(t, err)
	require.Len(t, a.Matches, 1)
	assert.Equal(t, Text("ENG"), a.Matches[0].Subject)
}

func TestParseCatalogAnswer_Malformed(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"", "```json\n```", "not json at all", `{"subject": [1,2]}`} {
		_, err := ParseCatalogAnswer(text)
		require.ErrorIs(t, err, domerrors.ErrMalformedResponse, "input %q", text)
	}
}

func TestCatalogAnswer_CatalogMissing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		answer CatalogAnswer
		want   bool
	}{
		{"found", CatalogAnswer{CatalogStatus: "found"}, false},
		{"not indexed", CatalogAnswer{CatalogStatus: "not_indexed"}, true},
		{"not found upper", CatalogAnswer{CatalogStatus: " NOT_FOUND "}, true},
		{"description phrase", CatalogAnswer{CatalogStatus: "found", Description: "Institution not found in corpus"}, true},
		{"course missing only", CatalogAnswer{CatalogStatus: "found", Description: "Cannot find the course description"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.answer.CatalogMissing(), tt.name)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  {\"a\":1}  "))
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CatalogSystemPrompt, SystemPrompt("   "))

	long := make([]byte, CandidateMaxChars+500)
	for i := range long {
		long[i] = 'x'
	}
	p := SystemPrompt(string(long))
	assert.Contains(t, p, "--DETERMINISTIC_DESCRIPTION_CANDIDATE--")
	assert.Contains(t, p, "--END_DESCRIPTION_CANDIDATE--")
	assert.NotContains(t, p, string(long[:CandidateMaxChars+1]))

	u := UserPrompt(Request{Query: " AVC BIOL 2251 ", Context: "chunk one"})
	assert.Equal(t, "user_query: AVC BIOL 2251\n\ncatalog evidence (highest score first):\nchunk one", u)
	assert.Equal(t, "user_query: q", UserPrompt(Request{Query: "q"}))
}
