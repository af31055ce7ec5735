// Package effects holds the insert effects of the master chain. Every
// settable parameter is a ramp.Param so changes never click.
package effects

import "github.com/cbegin/websynth-go/internal/ramp"

// Effector processes stereo audio in-place.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain runs a fixed series of stages.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// rates carries the ramp lengths of one sample rate.
type rates struct {
	sampleRate float64
	fast       int
	slow       int
}

func newRates(sampleRate int) rates {
	return rates{
		sampleRate: float64(sampleRate),
		fast:       ramp.Frames(ramp.Fast, sampleRate),
		slow:       ramp.Frames(ramp.Default, sampleRate),
	}
}

func mix(dry, wet float32, amount float64) float32 {
	w := float32(amount)
	return dry*(1-w) + wet*w
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
