package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinInstitutionRatio is the share of significant requested tokens that must
// be found for two institution names to match.
const MinInstitutionRatio = 0.5

// institutionPunctuation lists the characters removed before comparison.
const institutionPunctuation = ".,/#!$%^&*;:{}=-_`~()"

// abbreviations maps full words to the abbreviations seen in catalog exports.
var abbreviations = map[string][]string{
	"university":   {"univ"},
	"college":      {"coll"},
	"agricultural": {"ag"},
	"technical":    {"tech"},
	"technology":   {"tech"},
	"institute":    {"inst"},
	"community":    {"comm"},
	"state":        {"st"},
	"north":        {"n"},
	"south":        {"s"},
	"east":         {"e"},
	"west":         {"w"},
	"district":     {"dist"},
}

// abbreviationTokens holds every word of the table, full or abbreviated.
var abbreviationTokens = func() map[string]bool {
	set := make(map[string]bool)
	for full, abbrs := range abbreviations {
		set[full] = true
		for _, a := range abbrs {
			set[a] = true
		}
	}
	return set
}()

// InstitutionMatch is the outcome of comparing two institution names.
type InstitutionMatch struct {
	Matches bool    `json:"matches"`
	Ratio   float64 `json:"ratio"`
}

// MatchInstitution compares a requested institution name with one found in
// evidence. The comparison is asymmetric: the ratio is the share of the
// requested name's significant tokens that appear in the found name, either
// verbatim, through the abbreviation table, or as a prefix of a long word.
func MatchInstitution(requested, found string) InstitutionMatch {
	req := NormalizeInstitution(requested)
	got := NormalizeInstitution(found)

	if req == got {
		return InstitutionMatch{Matches: true, Ratio: 1.0}
	}

	reqTokens := significantTokens(req)
	if len(reqTokens) == 0 {
		return InstitutionMatch{Matches: true, Ratio: 1.0}
	}
	foundTokens := significantTokens(got)

	used := make([]bool, len(foundTokens))
	matched := 0
	for _, rt := range reqTokens {
		for i, ft := range foundTokens {
			if used[i] || !tokensMatch(rt, ft) {
				continue
			}
			used[i] = true
			matched++
			break
		}
	}

	ratio := float64(matched) / float64(len(reqTokens))
	return InstitutionMatch{Matches: ratio >= MinInstitutionRatio, Ratio: ratio}
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeInstitution lowercases a name, folds diacritics, strips
// punctuation and collapses whitespace.
func NormalizeInstitution(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(institutionPunctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(folded))

	return strings.Join(strings.Fields(stripped), " ")
}

func significantTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 || abbreviationTokens[f] {
			out = append(out, f)
		}
	}
	return out
}

func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	if isAbbreviationOf(a, b) || isAbbreviationOf(b, a) {
		return true
	}
	if len(a) > 4 && len(b) > 4 {
		return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
	}
	return false
}

func isAbbreviationOf(abbr, full string) bool {
	for _, a := range abbreviations[full] {
		if a == abbr {
			return true
		}
	}
	return false
}
