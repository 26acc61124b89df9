package tcgpage

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/triangulator-go/internal/catalog"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

const pageFixture = `<html><body>
<table id="results">
  <tr><th>Institution</th><th>Subject</th><th>Number</th><th>Title</th><th>Hours</th></tr>
  <tr>
    <td class="institutionText"><a href="/tcg/detail?sourceId=AZ0123&amp;x=1">Antelope Valley College</a></td>
    <td><span class="courseCell subject_1802784"> biol </span></td>
    <td><span class="number_1802784">2251</span></td>
    <td><span class="title_1802784">Human
        Anatomy</span></td>
    <td><span class="hours_1802784">4</span></td>
  </tr>
  <tr>
    <td class="institutionText"><a href="/tcg/detail">Pima Community College</a></td>
    <td><span class="subject_99">MAT</span></td>
    <td><span class="number_99">220</span></td>
  </tr>
  <tr>
    <td class="institutionText"><a href="#">Incomplete College</a></td>
    <td><span class="subject_5">ENG</span></td>
  </tr>
</table>
</body></html>`

func TestParse(t *testing.T) {
	t.Parallel()

	rows, err := Parse(strings.NewReader(pageFixture))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		Institution: "Antelope Valley College",
		Subject:     "biol",
		Number:      "2251",
		Title:       "Human Anatomy",
		Hours:       "4",
		SourceID:    "AZ0123",
		RequestID:   "1802784",
	}, rows[0])

	assert.Equal(t, "Pima Community College", rows[1].Institution)
	assert.Empty(t, rows[1].SourceID)
	assert.Equal(t, "99", rows[1].RequestID)
	assert.Empty(t, rows[1].Title)
}

func TestParse_NoRows(t *testing.T) {
	t.Parallel()

	rows, err := Parse(strings.NewReader("<p>nothing here</p>"))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestParse_NestedTables(t *testing.T) {
	t.Parallel()

	page := `<table><tr><td><table>` +
		`<tr><td><span class="subject_1">CHEM</span></td><td><span class="number_1">101</span></td></tr>` +
		`</table></td></tr></table>`
	rows, err := Parse(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CHEM", rows[0].Subject)
}

func TestRow_Query(t *testing.T) {
	t.Parallel()

	row := Row{Institution: " Antelope Valley College ", Subject: "biol", Number: "2251l", Title: "Human Anatomy"}
	assert.Equal(t, catalog.Query{
		Institution: "Antelope Valley College",
		Subject:     "BIOL",
		Number:      "2251L",
		Title:       "Human Anatomy",
	}, row.Query())
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/gzip" {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			_, _ = gz.Write([]byte(pageFixture))
			_ = gz.Close()
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
			return
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(pageFixture))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 0)

	rows, err := f.Fetch(t.Context(), srv.URL+"/plain")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.Fetch(t.Context(), srv.URL+"/gzip")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.Fetch(t.Context(), srv.URL+"/missing")
	var upErr *domerrors.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusNotFound, upErr.StatusCode)

	_, err = f.Fetch(t.Context(), "://bad")
	require.ErrorIs(t, err, domerrors.ErrInvalidInput)
}

func TestNewFetcher_DefaultClient(t *testing.T) {
	t.Parallel()
	f := NewFetcher(nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, f.httpClient.Timeout)
}
