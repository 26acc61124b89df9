package stringutil

// Similarity returns a normalized edit-distance similarity in [0, 1].
//
// Comparison ignores case and redundant whitespace. Identical strings score 1.0
// and an empty operand scores 0. The result is symmetric.
func Similarity(a, b string) float64 {
	a = NormalizeSpace(a)
	b = NormalizeSpace(b)

	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	longer := max(len(ra), len(rb))

	return 1 - float64(editDistance(ra, rb))/float64(longer)
}

// EditDistance returns the Levenshtein distance between a and b
// with unit cost for insertion, deletion, and substitution.
func EditDistance(a, b string) int {
	return editDistance([]rune(a), []rune(b))
}

// editDistance uses a single DP row sized to b.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}

	return row[len(b)]
}
