package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

const reverbRoomSize = 0.7

// Reverb is a Schroeder reverb: four parallel combs into two allpasses.
// Comb feedback is derived from the decay time (RT60) of each comb length.
type Reverb struct {
	rates
	combs   [4]line
	allpass [2]line
	decay   ramp.Param // seconds
	wet     ramp.Param
}

// line is a circular buffer shared by the comb and allpass stages.
type line struct {
	buf []float32
	pos int
	fb  float32
}

func newLine(n int, fb float32) line {
	return line{buf: make([]float32, max(n, 1)), fb: fb}
}

func (d *line) head() float32 { return d.buf[d.pos] }

func (d *line) push(v float32) {
	d.buf[d.pos] = v
	if d.pos++; d.pos == len(d.buf) {
		d.pos = 0
	}
}

func (d *line) comb(in float32) float32 {
	out := d.head()
	d.push(in + out*d.fb)
	return out
}

func (d *line) allpass(in float32) float32 {
	old := d.head()
	d.push(in + old*d.fb)
	return old - in
}

func (d *line) reset() {
	clear(d.buf)
	d.pos = 0
}

func NewReverb(sampleRate int, decay, wet float64) *Reverb {
	base := max(int(float64(sampleRate)*reverbRoomSize*0.05), 10)
	r := &Reverb{
		rates: newRates(sampleRate),
		decay: ramp.New(math.Max(decay, 0.01)),
		wet:   ramp.New(clamp(wet, 0, 1)),
	}
	// Comb lengths use prime-ish ratios to avoid stacked resonances.
	for i, ratio := range [4]int{1000, 1117, 1271, 1437} {
		r.combs[i] = newLine(base*ratio/1000, 0)
	}
	for i, ratio := range [2]int{347, 213} {
		r.allpass[i] = newLine(base*ratio/1000, 0.5)
	}
	r.updateFeedback(r.decay.Value())
	return r
}

func (r *Reverb) SetDecay(s float64) { r.decay.SetTarget(math.Max(s, 0.01), r.slow) }
func (r *Reverb) SetWet(w float64) { r.wet.SetTarget(clamp(w, 0, 1), r.slow) }

// updateFeedback sets each comb gain so it decays by 60 dB in seconds.
func (r *Reverb) updateFeedback(seconds float64) {
	for i := range r.combs {
		delay := float64(len(r.combs[i].buf)) / r.sampleRate
		r.combs[i].fb = float32(math.Pow(10, -3*delay/seconds))
	}
}

func (r *Reverb) Process(l, rr float32) (float32, float32) {
	if r.decay.Ramping() {
		r.updateFeedback(r.decay.Next())
	}
	w := r.wet.Next()
	in := (l + rr) * 0.5
	var sum float32
	for i := range r.combs {
		sum += r.combs[i].comb(in)
	}
	out := sum / float32(len(r.combs))
	for i := range r.allpass {
		out = r.allpass[i].allpass(out)
	}
	return mix(l, out, w), mix(rr, out, w)
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}
