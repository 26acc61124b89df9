package catalog

import (
	"strings"

	"github.com/garyellow/triangulator-go/internal/stringutil"
)

// Classification thresholds.
const (
	// SuffixCrossoverSimilarity applies when exactly one side has no suffix,
	// typically a lab requested and its lecture found.
	SuffixCrossoverSimilarity = 0.85
	// SuffixMismatchSimilarity applies when both suffixes are present and differ.
	SuffixMismatchSimilarity = 0.80

	// sameSubjectPenalty scales number similarity when bases differ.
	sameSubjectPenalty = 0.9

	sameSubjectStrongThreshold  = 0.85
	crossSubjectStrongThreshold = 0.90
	fuzzyThreshold              = 0.70
)

// Classify compares the requested course with the found course.
//
// Rules are applied as a strict precedence cascade. A lab and its lecture
// never classify as exact, and differing subjects never classify as exact.
func Classify(reqSubject, reqNumber, foundSubject, foundNumber string) Classification {
	rs := strings.ToUpper(strings.TrimSpace(reqSubject))
	fs := strings.ToUpper(strings.TrimSpace(foundSubject))
	rn := ParseNumber(reqNumber)
	fn := ParseNumber(foundNumber)

	if rs == fs && rs != "" {
		if rn.Base != "" && rn.Base == fn.Base {
			switch {
			case rn.Suffix == fn.Suffix:
				return Classification{MatchType: MatchExact, Similarity: 1.0}
			case rn.Suffix == "" || fn.Suffix == "":
				return Classification{MatchType: MatchFuzzy, Similarity: SuffixCrossoverSimilarity}
			default:
				return Classification{MatchType: MatchFuzzy, Similarity: SuffixMismatchSimilarity}
			}
		}

		sim := stringutil.Similarity(rn.Full, fn.Full) * sameSubjectPenalty
		return Classification{MatchType: tier(sim, sameSubjectStrongThreshold), Similarity: sim}
	}

	sim := stringutil.Similarity(rs+" "+rn.Full, fs+" "+fn.Full)
	return Classification{MatchType: tier(sim, crossSubjectStrongThreshold), Similarity: sim}
}

func tier(sim, strong float64) MatchType {
	switch {
	case sim >= strong:
		return MatchStrongFuzzy
	case sim >= fuzzyThreshold:
		return MatchFuzzy
	default:
		return MatchNone
	}
}
