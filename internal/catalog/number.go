package catalog

import (
	"regexp"
	"strings"
	"unicode"
)

var numberPattern = regexp.MustCompile(`^(\d+)([A-Z]*)$`)

// CourseNumber splits a course number into its numeric base and letter suffix.
type CourseNumber struct {
	Base   string
	Suffix string
	Full   string
}

// ParseNumber parses a course-number token such as "2251L".
//
// Well-formed tokens satisfy Full == Base + Suffix. Anything else is parsed
// best-effort: Base collects every digit and Suffix every letter. An
// unparsable token yields an empty Base.
func ParseNumber(raw string) CourseNumber {
	s := strings.ToUpper(strings.TrimSpace(raw))

	if m := numberPattern.FindStringSubmatch(s); m != nil {
		return CourseNumber{Base: m[1], Suffix: m[2], Full: s}
	}

	var base, suffix strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			base.WriteRune(r)
		case unicode.IsLetter(r):
			suffix.WriteRune(r)
		}
	}

	return CourseNumber{Base: base.String(), Suffix: suffix.String(), Full: s}
}

// CleanNumber strips a trailing ".0" left by spreadsheet exports.
func CleanNumber(raw string) string {
	s := strings.TrimSpace(raw)
	return strings.TrimSuffix(s, ".0")
}
