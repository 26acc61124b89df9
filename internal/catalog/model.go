// Package catalog implements deterministic course-catalog matching over
// retrieved evidence text.
//
// Evidence chunks carry quasi-CSV catalog records, each introduced by a
// canonical token of the form INSTITUTION::SUBJECT::NUMBER. The package
// locates the requested record, harvests target-institution equivalents and
// classifies how closely the found course matches the requested one.
// Nothing in this package performs I/O or keeps state between calls.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DescriptionSentinel is the phrase used for an absent or unusable description.
const DescriptionSentinel = "Cannot find the course description"

// DefaultTargetInstitution is the institution whose equivalents are harvested.
const DefaultTargetInstitution = "ASU"

// Validity limits for descriptions.
const (
	// MinEquivalentDescriptionLength is the shortest usable equivalent description.
	MinEquivalentDescriptionLength = 30
	// MinTightDescriptionLength is the shortest description accepted by the tight row pattern.
	MinTightDescriptionLength = 20
	// MinLooseDescriptionLength is the shortest quoted string taken as a description by the loose pattern.
	MinLooseDescriptionLength = 50
)

// Result bounds.
const (
	MaxSectionMatches   = 3
	MaxCollectedMatches = 10
)

// EvidenceChunk is one ranked retrieval result.
type EvidenceChunk struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Query describes the requested transfer course.
type Query struct {
	Institution string `json:"institution"`
	Subject     string `json:"subject"`
	Number      string `json:"number"`
	Title       string `json:"title"`
}

// Normalized returns a copy with trimmed fields and upper-cased subject and number.
func (q Query) Normalized() Query {
	return Query{
		Institution: strings.TrimSpace(q.Institution),
		Subject:     strings.ToUpper(strings.TrimSpace(q.Subject)),
		Number:      strings.ToUpper(strings.TrimSpace(q.Number)),
		Title:       strings.TrimSpace(q.Title),
	}
}

// SearchText is the free-text query sent to retrieval.
func (q Query) SearchText() string {
	return strings.Join(strings.Fields(strings.Join([]string{q.Institution, q.Subject, q.Number, q.Title}, " ")), " ")
}

// ExtractedCourse is the record located for the requested course.
type ExtractedCourse struct {
	Institution     string            `json:"institution"`
	Subject         string            `json:"subject"`
	Number          string            `json:"number"`
	NumberBase      string            `json:"number_base"`
	Suffix          string            `json:"suffix"`
	RequestedSuffix string            `json:"requested_suffix"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Matches         []EquivalentMatch `json:"matches"`
	IsVariant       bool              `json:"is_variant"`

	// Strategy names the anchor and field strategies that produced the record.
	Strategy string `json:"strategy"`
}

// EquivalentMatch is one candidate equivalent course at the target institution.
type EquivalentMatch struct {
	Subject     string `json:"subject"`
	Number      string `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Hours       Hours  `json:"hours"`
}

// Key returns the de-duplication key SUBJECT::NUMBER.
func (m EquivalentMatch) Key() string {
	return strings.ToUpper(m.Subject) + "::" + strings.ToUpper(m.Number)
}

// Usable reports whether the match carries a description worth surfacing.
func (m EquivalentMatch) Usable() bool {
	return ValidDescription(m.Description, MinEquivalentDescriptionLength)
}

// ValidDescription reports whether desc is at least minLen characters long
// and is not the missing-description sentinel.
func ValidDescription(desc string, minLen int) bool {
	desc = strings.TrimSpace(desc)
	if len(desc) < minLen {
		return false
	}
	return !IsMissingDescription(desc)
}

// IsMissingDescription reports whether desc is empty or contains the sentinel phrase.
func IsMissingDescription(desc string) bool {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return true
	}
	return strings.Contains(strings.ToLower(desc), "cannot find")
}

// Hours is a credit-hour value: absent, a single number, or a min-max range.
type Hours struct {
	Min   float64
	Max   float64
	Valid bool
}

// NewHours builds Hours from a credit range.
func NewHours(lo, hi float64) Hours {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Hours{Min: lo, Max: hi, Valid: true}
}

// String renders "3" for a single value and "1 - 3" for a range.
func (h Hours) String() string {
	if !h.Valid {
		return ""
	}
	if h.Min == h.Max {
		return formatCredit(h.Min)
	}
	return formatCredit(h.Min) + " - " + formatCredit(h.Max)
}

// MarshalJSON encodes null, a number, or a "min - max" string.
func (h Hours) MarshalJSON() ([]byte, error) {
	switch {
	case !h.Valid:
		return []byte("null"), nil
	case h.Min == h.Max:
		return []byte(formatCredit(h.Min)), nil
	default:
		return json.Marshal(h.String())
	}
}

// UnmarshalJSON accepts null, a number, or a "min - max" string.
func (h *Hours) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*h = Hours{}
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*h = NewHours(v, v)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	lo, hi, ok := strings.Cut(text, "-")
	if !ok {
		hi = lo
	}
	minV, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return fmt.Errorf("hours: invalid value %q", text)
	}
	maxV, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return fmt.Errorf("hours: invalid value %q", text)
	}
	*h = NewHours(minV, maxV)
	return nil
}

func formatCredit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MatchType is the ordered classification taxonomy.
type MatchType string

const (
	MatchExact           MatchType = "exact"
	MatchStrongFuzzy     MatchType = "strong_fuzzy"
	MatchFuzzy           MatchType = "fuzzy"
	MatchNone            MatchType = "no_match"
	MatchCatalogNotFound MatchType = "catalog_not_found"
)

// String returns the wire name of the match type.
func (m MatchType) String() string {
	return string(m)
}

// Classification pairs a match type with its similarity score.
type Classification struct {
	MatchType  MatchType `json:"match_type"`
	Similarity float64   `json:"similarity"`
}
