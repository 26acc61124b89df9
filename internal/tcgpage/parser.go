// Package tcgpage reads course rows out of Transfer Credit Guide (TCG)
// equivalency pages so they can be looked up in bulk.
package tcgpage

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/triangulator-go/internal/catalog"
)

// Selectors used by TCG result tables. Cell classes carry a per-request
// numeric suffix, for example subject_1802784.
const (
	institutionSelector = ".institutionText a"
	subjectSelector     = `[class*="subject_"]`
	numberSelector      = `[class*="number_"]`
	titleSelector       = `[class*="title_"]`
	hoursSelector       = `[class*="hours_"]`
)

var (
	sourceIDPattern  = regexp.MustCompile(`sourceId=([A-Z0-9]+)`)
	requestIDPattern = regexp.MustCompile(`subject_(\d+)`)
)

// Row is one course row of a TCG table.
type Row struct {
	Institution string `json:"institution"`
	Subject     string `json:"subject"`
	Number      string `json:"number"`
	Title       string `json:"title,omitempty"`
	Hours       string `json:"hours,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Query converts the row to a lookup query.
func (r Row) Query() catalog.Query {
	return catalog.Query{
		Institution: r.Institution,
		Subject:     r.Subject,
		Number:      r.Number,
		Title:       r.Title,
	}.Normalized()
}

// Parse extracts every table row that names at least a subject and a
// course number, in document order.
func Parse(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return ParseDocument(doc), nil
}

// ParseDocument extracts rows from an already parsed page.
func ParseDocument(doc *goquery.Document) []Row {
	rows := make([]Row, 0)
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Rows wrapping nested tables are skipped; the inner rows are visited on their own.
		if tr.Find("tr").Length() > 0 {
			return
		}
		if row, ok := parseRow(tr); ok {
			rows = append(rows, row)
		}
	})
	return rows
}

func parseRow(tr *goquery.Selection) (Row, bool) {
	var row Row

	if link := tr.Find(institutionSelector).First(); link.Length() > 0 {
		row.Institution = cellText(link)
		if href, ok := link.Attr("href"); ok {
			if m := sourceIDPattern.FindStringSubmatch(href); m != nil {
				row.SourceID = m[1]
			}
		}
	}

	if subject := tr.Find(subjectSelector).First(); subject.Length() > 0 {
		row.Subject = cellText(subject)
		if class, ok := subject.Attr("class"); ok {
			if m := requestIDPattern.FindStringSubmatch(class); m != nil {
				row.RequestID = m[1]
			}
		}
	}

	row.Number = cellText(tr.Find(numberSelector).First())
	row.Title = cellText(tr.Find(titleSelector).First())
	row.Hours = cellText(tr.Find(hoursSelector).First())

	return row, row.Subject != "" && row.Number != ""
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
