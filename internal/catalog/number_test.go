package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want CourseNumber
	}{
		{"2251", CourseNumber{Base: "2251", Suffix: "", Full: "2251"}},
		{"2251L", CourseNumber{Base: "2251", Suffix: "L", Full: "2251L"}},
		{" 2251l ", CourseNumber{Base: "2251", Suffix: "L", Full: "2251L"}},
		{"1AH", CourseNumber{Base: "1", Suffix: "AH", Full: "1AH"}},
		{"L-101", CourseNumber{Base: "101", Suffix: "L", Full: "L-101"}},
		{"101.0", CourseNumber{Base: "1010", Suffix: "", Full: "101.0"}},
		{"LAB", CourseNumber{Base: "", Suffix: "LAB", Full: "LAB"}},
		{"", CourseNumber{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestParseNumber_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"101", "2251L", "1A", "340abc", "9"} {
		n := ParseNumber(raw)
		assert.Equal(t, n.Full, n.Base+n.Suffix, "base+suffix for %q", raw)
	}
}

func TestCleanNumber(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "101", CleanNumber("101.0"))
	assert.Equal(t, "101", CleanNumber(" 101 "))
	assert.Equal(t, "101.5", CleanNumber("101.5"))
}
