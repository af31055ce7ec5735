// Package freq holds the pitch math shared by the voice and modulation code.
package freq

import (
	"math"

	approx "github.com/cwbudde/algo-approx"
)

// DefaultBendRange is the pitch-bend range in semitones when none is configured.
const DefaultBendRange = 2

const ln2 = 0.6931471805599453

// Bend returns base shifted by bend*rangeSemitones semitones. bend is clamped to [-1, 1].
func Bend(base, bend, rangeSemitones float64) float64 {
	return base * math.Pow(2, clamp(bend, -1, 1)*rangeSemitones/12)
}

// BendRatio is the frequency multiplier for a bend value at the given range.
func BendRatio(bend, rangeSemitones float64) float64 {
	return math.Pow(2, clamp(bend, -1, 1)*rangeSemitones/12)
}

// Sub returns the sub-oscillator frequency |octave| octaves below bent.
func Sub(bent float64, octave int) float64 {
	if octave < 0 {
		octave = -octave
	}
	return bent / math.Pow(2, float64(octave))
}

// Ratio approximates 2^(semitones/12) for per-sample use.
func Ratio(semitones float64) float64 {
	return float64(Pow2(float32(semitones / 12)))
}

// Pow2 approximates 2^x.
func Pow2(x float32) float32 {
	return approx.FastExp(x * ln2)
}

// Octaves shifts f by a (possibly fractional) number of octaves.
func Octaves(f, octaves float64) float64 {
	return f * float64(Pow2(float32(octaves)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
