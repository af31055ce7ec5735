package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/freq"
	"github.com/cbegin/websynth-go/internal/ramp"
)

const (
	PhaserBaseFrequency = 350.0
	phaserStages        = 6
	phaserMaxOctaves    = 6
)

// Phaser sweeps a cascade of first-order allpass stages between the base
// frequency and base*2^octaves. Depth 0..1 maps to 0..6 octaves.
type Phaser struct {
	rates
	rate   ramp.Param
	depth  ramp.Param
	wet    ramp.Param
	phase  float64
	stateL [phaserStages]allpass1
	stateR [phaserStages]allpass1
}

type allpass1 struct {
	x1, y1 float64
}

func (a *allpass1) process(in, coef float64) float64 {
	out := coef*in + a.x1 - coef*a.y1
	a.x1 = in
	a.y1 = out
	return out
}

func NewPhaser(sampleRate int, rateHz, depth, wet float64) *Phaser {
	return &Phaser{
		rates: newRates(sampleRate),
		rate:  ramp.New(rateHz),
		depth: ramp.New(clamp(depth, 0, 1)),
		wet:   ramp.New(clamp(wet, 0, 1)),
	}
}

func (p *Phaser) SetRate(hz float64) { p.rate.SetTarget(hz, p.slow) }
func (p *Phaser) SetDepth(d float64) { p.depth.SetTarget(clamp(d, 0, 1), p.slow) }
func (p *Phaser) SetWet(w float64) { p.wet.SetTarget(clamp(w, 0, 1), p.slow) }

// Octaves is the sweep width for the current depth target.
func (p *Phaser) Octaves() float64 { return p.depth.Target() * phaserMaxOctaves }

func (p *Phaser) Process(l, r float32) (float32, float32) {
	rate := p.rate.Next()
	octaves := p.depth.Next() * phaserMaxOctaves
	w := p.wet.Next()

	lfoL := (math.Sin(2*math.Pi*p.phase) + 1) / 2
	lfoR := (math.Sin(2*math.Pi*p.phase+math.Pi) + 1) / 2
	p.phase += rate / p.sampleRate
	for p.phase >= 1 {
		p.phase -= 1
	}

	wetL := p.cascade(&p.stateL, float64(l), p.coef(lfoL, octaves))
	wetR := p.cascade(&p.stateR, float64(r), p.coef(lfoR, octaves))
	return mix(l, float32(wetL), w), mix(r, float32(wetR), w)
}

func (p *Phaser) coef(lfo, octaves float64) float64 {
	f := freq.Octaves(PhaserBaseFrequency, lfo*octaves)
	f = clamp(f, MinCutoff, p.sampleRate*0.45)
	t := math.Tan(math.Pi * f / p.sampleRate)
	return (t - 1) / (t + 1)
}

func (p *Phaser) cascade(stages *[phaserStages]allpass1, in, coef float64) float64 {
	out := in
	for i := range stages {
		out = stages[i].process(out, coef)
	}
	return out
}

func (p *Phaser) Reset() {
	p.stateL = [phaserStages]allpass1{}
	p.stateR = [phaserStages]allpass1{}
	p.phase = 0
}
