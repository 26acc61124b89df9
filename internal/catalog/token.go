package catalog

import (
	"regexp"
	"strings"
)

// institutionClass matches the institution part of a canonical token in any case.
const institutionClass = `([A-Za-z0-9 &\-]+)`

// canonicalToken matches INSTITUTION::SUBJECT::NUMBER record anchors.
var canonicalToken = regexp.MustCompile(institutionClass + `::([A-Za-z]{2,6})::(\d+(?:\.0)?[A-Za-z]*)`)

// Token is one canonical token found in evidence text.
type Token struct {
	Institution string
	Subject     string
	Number      string
	Start       int
	End         int
}

// FindTokens returns every canonical token in text, in order of appearance.
func FindTokens(text string) []Token {
	idx := canonicalToken.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(idx))
	for _, m := range idx {
		tokens = append(tokens, Token{
			Institution: cleanInstitution(text[m[2]:m[3]]),
			Subject:     strings.ToUpper(text[m[4]:m[5]]),
			Number:      strings.ToUpper(CleanNumber(text[m[6]:m[7]])),
			Start:       m[0],
			End:         m[1],
		})
	}
	return tokens
}

// FirstInstitution returns the institution of the first canonical token in text.
func FirstInstitution(text string) string {
	m := canonicalToken.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanInstitution(m[1])
}

// cleanInstitution trims separators and stray leading digits picked up from
// the tail of a preceding record.
func cleanInstitution(s string) string {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimLeft(s, "0123456789 -&")
	if trimmed == "" {
		return s
	}
	return trimmed
}

// isTargetInstitution reports whether a token belongs to the target institution.
func isTargetInstitution(institution, target string) bool {
	if target == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(institution), strings.TrimSpace(target))
}

// requestsTarget reports whether a requested institution names the target,
// spelled out ("Arizona State University"), abbreviated ("Arizona State
// Univ") or as its acronym ("ASU").
func requestsTarget(requested, target string) bool {
	req := NormalizeInstitution(requested)
	tgt := NormalizeInstitution(target)
	if req == "" || tgt == "" {
		return false
	}
	if req == tgt || acronym(req) == tgt {
		return true
	}
	return len(significantTokens(req)) > 0 && MatchInstitution(requested, target).Matches
}

// acceptsInstitution reports whether an anchor's institution satisfies the
// request. Target records also accept the target's spelled-out name.
func acceptsInstitution(requested, found, target string) bool {
	if MatchInstitution(requested, found).Matches {
		return true
	}
	return isTargetInstitution(found, target) && requestsTarget(requested, target)
}

// acronym joins the first letter of every word of a normalized name.
func acronym(normalized string) string {
	var b strings.Builder
	for _, w := range strings.Fields(normalized) {
		b.WriteByte(w[0])
	}
	return b.String()
}

// StartsRecord reports whether line begins with a canonical token, which
// marks the first line of a catalog record.
func StartsRecord(line string) bool {
	loc := canonicalToken.FindStringIndex(line)
	return loc != nil && loc[0] == 0
}
