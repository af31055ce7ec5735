package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

// FilterMode selects the filter response.
type FilterMode int

const (
	Lowpass FilterMode = iota
	Highpass
)

// MinCutoff is the lowest frequency a filter accepts.
const MinCutoff = 10.0

// Filter is a stereo state-variable filter. The cutoff is either its own
// ramped value or, once Drive is called, an external per-sample signal.
type Filter struct {
	rates
	mode FilterMode
	freq ramp.Param
	q    ramp.Param

	driven bool
	input  float64

	ic1 [2]float64
	ic2 [2]float64
}

func NewFilter(sampleRate int, mode FilterMode, freq, q float64) *Filter {
	return &Filter{
		rates: newRates(sampleRate),
		mode:  mode,
		freq:  ramp.New(freq),
		q:     ramp.New(q),
	}
}

func (f *Filter) SetFrequency(hz float64) { f.freq.SetTarget(hz, f.fast) }
func (f *Filter) SetQ(q float64) { f.q.SetTarget(q, f.slow) }
func (f *Filter) Frequency() float64 { return f.freq.Target() }
func (f *Filter) Q() float64 { return f.q.Target() }

// Drive sets the cutoff for the next sample from an external control signal.
func (f *Filter) Drive(hz float64) {
	f.driven = true
	f.input = hz
}

// Cutoff returns the frequency the filter will use, after clamping.
func (f *Filter) Cutoff(hz float64) float64 {
	return clamp(hz, MinCutoff, f.sampleRate*0.45)
}

func (f *Filter) Process(l, r float32) (float32, float32) {
	hz := f.freq.Next()
	if f.driven {
		hz = f.input
	}
	q := f.q.Next()
	if q < 0.1 {
		q = 0.1
	}
	g := math.Tan(math.Pi * f.Cutoff(hz) / f.sampleRate)
	k := 1 / q
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2
	return float32(f.tick(0, float64(l), a1, a2, a3, k)), float32(f.tick(1, float64(r), a1, a2, a3, k))
}

func (f *Filter) tick(ch int, in, a1, a2, a3, k float64) float64 {
	v3 := in - f.ic2[ch]
	v1 := a1*f.ic1[ch] + a2*v3
	v2 := f.ic2[ch] + a2*f.ic1[ch] + a3*v3
	f.ic1[ch] = 2*v1 - f.ic1[ch]
	f.ic2[ch] = 2*v2 - f.ic2[ch]
	if f.mode == Highpass {
		return in - k*v1 - v2
	}
	return v2
}

func (f *Filter) Reset() {
	f.ic1 = [2]float64{}
	f.ic2 = [2]float64{}
}
