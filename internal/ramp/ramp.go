// Package ramp smooths control parameters so that changes never jump.
package ramp

import "time"

// Ramp durations per parameter class.
const (
	Fast    = 50 * time.Millisecond  // filter frequencies, pitch bend
	Default = 100 * time.Millisecond // Q, wet, gain, LFO, routing amounts
)

// Param is a value that moves linearly toward its target, one sample at a time.
// SetTarget during an in-flight ramp restarts the ramp from the current value.
type Param struct {
	cur       float64
	target    float64
	step      float64
	remaining int
}

func New(v float64) Param {
	return Param{cur: v, target: v}
}

// Frames converts a ramp duration to a sample count, at least 1.
func Frames(d time.Duration, sampleRate int) int {
	n := int(d.Seconds() * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

// SetTarget ramps from the current value to v over frames samples.
func (p *Param) SetTarget(v float64, frames int) {
	p.target = v
	if frames <= 0 {
		p.Set(v)
		return
	}
	p.remaining = frames
	p.step = (v - p.cur) / float64(frames)
}

// Set jumps to v immediately. Only used before audio runs or for scheduled events.
func (p *Param) Set(v float64) {
	p.cur = v
	p.target = v
	p.step = 0
	p.remaining = 0
}

// Next advances one sample and returns the new value.
func (p *Param) Next() float64 {
	if p.remaining > 0 {
		p.remaining--
		p.cur += p.step
		if p.remaining == 0 {
			p.cur = p.target
		}
	}
	return p.cur
}

func (p *Param) Value() float64 { return p.cur }
func (p *Param) Target() float64 { return p.target }
func (p *Param) Ramping() bool { return p.remaining > 0 }
