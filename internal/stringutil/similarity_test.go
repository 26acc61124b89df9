package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"2251", "2251L", 1},
		{"101", "102", 1},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EditDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, EditDistance(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "BIOL 2251", "BIOL 2251", 1.0},
		{"case and spacing ignored", "biol  2251", "BIOL 2251", 1.0},
		{"empty left", "", "BIOL", 0},
		{"empty right", "BIOL", "", 0},
		{"both empty", "", "", 0},
		{"one substitution of four", "2251", "2252", 0.75},
		{"disjoint", "abc", "xyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Properties(t *testing.T) {
	t.Parallel()
	samples := []string{"BIOL 101", "CHEM 101", "MAT 2251L", "ENG 1A", "antelope valley coll"}
	for _, a := range samples {
		assert.InDelta(t, 1.0, Similarity(a, a), 1e-9, "reflexive for %q", a)
		for _, b := range samples {
			got := Similarity(a, b)
			assert.InDelta(t, got, Similarity(b, a), 1e-9, "symmetric for %q/%q", a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}
