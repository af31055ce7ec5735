package arp

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencePatterns(t *testing.T) {
	notes := []float64{3, 1, 2}
	tests := []struct {
		name    string
		pattern Pattern
		octaves int
		want    []float64
	}{
		{"up", Up, 1, []float64{1, 2, 3}},
		{"down", Down, 1, []float64{3, 2, 1}},
		{"upDown drops turnaround repeats", UpDown, 1, []float64{1, 2, 3, 2}},
		{"up two octaves", Up, 2, []float64{1, 2, 3, 2, 4, 6}},
		{"down two octaves", Down, 2, []float64{6, 4, 2, 3, 2, 1}},
		{"octaves clamp high", Up, 9, []float64{1, 2, 3, 2, 4, 6, 4, 8, 12}},
		{"octaves clamp low", Up, 0, []float64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sequence(notes, tt.octaves, tt.pattern, nil))
		})
	}
}

func TestSequenceSingleNote(t *testing.T) {
	for _, p := range Patterns {
		assert.Equal(t, []float64{440}, Sequence([]float64{440}, 1, p, nil), string(p))
	}
}

func TestSequenceEmpty(t *testing.T) {
	assert.Empty(t, Sequence(nil, 2, Up, nil))
}

func TestSequenceDoesNotMutateInput(t *testing.T) {
	notes := []float64{3, 1, 2}
	Sequence(notes, 1, Random, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, []float64{3, 1, 2}, notes)
}

func TestRandomIsPermutationOfUp(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	notes := []float64{100, 200, 300, 400}
	up := Sequence(notes, 2, Up, nil)
	for i := 0; i < 20; i++ {
		got := Sequence(notes, 2, Random, rng)
		sort.Float64s(got)
		require.Equal(t, up, got)
	}
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("upDown")
	require.NoError(t, err)
	assert.Equal(t, UpDown, p)
	_, err = ParsePattern("sideways")
	assert.Error(t, err)
}
