// Package arp implements the arpeggiator: pattern generation over the held
// notes and a loop on the shared transport that steps through it.
package arp

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

type Pattern string

const (
	Up     Pattern = "up"
	Down   Pattern = "down"
	UpDown Pattern = "upDown"
	Random Pattern = "random"
)

var Patterns = []Pattern{Up, Down, UpDown, Random}

func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown arpeggiator pattern %q", s)
}

const (
	MinOctaves = 1
	MaxOctaves = 3
)

func ClampOctaves(n int) int {
	return max(MinOctaves, min(MaxOctaves, n))
}

// Sequence expands notes across octaves by frequency doubling and orders the
// result by pattern. rng is only used by Random and may be nil otherwise.
func Sequence(notes []float64, octaves int, p Pattern, rng *rand.Rand) []float64 {
	if len(notes) == 0 {
		return nil
	}
	sorted := append([]float64(nil), notes...)
	sort.Float64s(sorted)

	octaves = ClampOctaves(octaves)
	seq := make([]float64, 0, len(sorted)*octaves)
	mult := 1.0
	for oct := 0; oct < octaves; oct++ {
		for _, n := range sorted {
			seq = append(seq, n*mult)
		}
		mult *= 2
	}

	switch p {
	case Down:
		reverse(seq)
	case UpDown:
		if len(seq) <= 1 {
			return seq
		}
		inner := append([]float64(nil), seq[1:len(seq)-1]...)
		reverse(inner)
		seq = append(seq, inner...)
	case Random:
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	}
	return seq
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
