package genai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// Catalog status values reported by the model.
const (
	CatalogFound      = "found"
	CatalogNotIndexed = "not_indexed"
	CatalogNotFound   = "not_found"
)

var (
	openFence  = regexp.MustCompile("^```(?:json)?\\n?")
	closeFence = regexp.MustCompile("\\n?```$")
)

// catalogMissingPhrases in a model description mean the institution's
// catalog is absent rather than the course.
var catalogMissingPhrases = []string{"institution not found", "catalog not found", "not indexed"}

// Text is a JSON string that also accepts numbers and null.
// Models sometimes emit course numbers as 101 or 101.0.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// AnswerMatch is one equivalent course reported by the model.
type AnswerMatch struct {
	Subject     Text `json:"subject"`
	Number      Text `json:"number"`
	Title       Text `json:"title"`
	Description Text `json:"description"`
}

// Empty reports whether the match names no course.
func (m AnswerMatch) Empty() bool {
	return strings.TrimSpace(string(m.Subject)) == "" || strings.TrimSpace(string(m.Number)) == ""
}

// CatalogAnswer is the JSON object the fallback model returns.
// Every field is untrusted and re-validated by the caller.
type CatalogAnswer struct {
	CatalogStatus Text          `json:"catalog_status"`
	Subject       Text          `json:"subject"`
	Number        Text          `json:"number"`
	Title         Text          `json:"title"`
	Description   Text          `json:"input_course_description"`
	CandidateUsed Text          `json:"candidate_description_used"`
	Matches       []AnswerMatch `json:"-"`
}

// UnmarshalJSON accepts matches as {"match_1": {...}} or as an array.
func (a *CatalogAnswer) UnmarshalJSON(data []byte) error {
	type plain CatalogAnswer
	var aux struct {
		plain
		Matches json.RawMessage `json:"matches"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = CatalogAnswer(aux.plain)

	raw := bytes.TrimSpace(aux.Matches)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '[' {
		var list []AnswerMatch
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("matches: %w", err)
		}
		a.Matches = list
		return nil
	}

	var byKey map[string]AnswerMatch
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return fmt.Errorf("matches: %w", err)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareMatchKeys)
	for _, k := range keys {
		a.Matches = append(a.Matches, byKey[k])
	}
	return nil
}

// compareMatchKeys orders match_2 before match_10.
func compareMatchKeys(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, "match_"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, "match_"))
	if errA == nil && errB == nil {
		return na - nb
	}
	return strings.Compare(a, b)
}

// CatalogMissing reports whether the model says the institution's catalog
// is not indexed, either through catalog_status or its description text.
func (a *CatalogAnswer) CatalogMissing() bool {
	status := strings.ToLower(strings.TrimSpace(string(a.CatalogStatus)))
	if status == CatalogNotIndexed || status == CatalogNotFound {
		return true
	}
	desc := strings.ToLower(string(a.Description))
	return containsAny(desc, catalogMissingPhrases...)
}

// StripFences removes a surrounding markdown code fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = openFence.ReplaceAllString(text, "")
	text = closeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseCatalogAnswer decodes the model's reply. Code fences are stripped;
// when the reply still is not a JSON object, the outermost braces are tried.
// Failures wrap ErrMalformedResponse.
func ParseCatalogAnswer(text string) (*CatalogAnswer, error) {
	body := StripFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty completion", domerrors.ErrMalformedResponse)
	}

	var answer CatalogAnswer
	err := json.Unmarshal([]byte(body), &answer)
	if err == nil {
		return &answer, nil
	}

	start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}')
	if start >= 0 && end > start {
		var inner CatalogAnswer
		if innerErr := json.Unmarshal([]byte(body[start:end+1]), &inner); innerErr == nil {
			return &inner, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", domerrors.ErrMalformedResponse, err)
}
