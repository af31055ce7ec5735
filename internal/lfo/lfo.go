package lfo

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

// Waveform selects the LFO shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

var waveNames = map[string]Waveform{
	"sine":     Sine,
	"square":   Square,
	"triangle": Triangle,
	"sawtooth": Sawtooth,
}

// ParseWaveform maps a waveform name to its constant.
func ParseWaveform(name string) (Waveform, bool) {
	w, ok := waveNames[name]
	return w, ok
}

func (w Waveform) String() string {
	for name, v := range waveNames {
		if v == w {
			return name
		}
	}
	return "sine"
}

// LFO is a free-running low-frequency oscillator shared by the whole engine.
// Rate and depth changes are ramped; the phase is never reset by a parameter change.
type LFO struct {
	sampleRate float64
	rate       ramp.Param // Hz
	depth      ramp.Param // 0..1
	waveform   Waveform
	phase      float64 // [0, 1)
}

func New(sampleRate int, rateHz, depth float64, waveform Waveform) *LFO {
	return &LFO{
		sampleRate: float64(sampleRate),
		rate:       ramp.New(rateHz),
		depth:      ramp.New(depth),
		waveform:   waveform,
	}
}

func (l *LFO) SetRate(hz float64, frames int) { l.rate.SetTarget(hz, frames) }
func (l *LFO) SetDepth(d float64, frames int) { l.depth.SetTarget(d, frames) }
func (l *LFO) SetWaveform(w Waveform) { l.waveform = w }
func (l *LFO) Waveform() Waveform { return l.waveform }

// Sample advances the LFO by one sample and returns a value in [-depth, +depth].
func (l *LFO) Sample() float64 {
	rate := l.rate.Next()
	depth := l.depth.Next()

	var v float64
	switch l.waveform {
	case Square:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case Triangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	case Sawtooth:
		v = 2*l.phase - 1
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}

	if l.sampleRate > 0 {
		l.phase += rate / l.sampleRate
		for l.phase >= 1 {
			l.phase -= 1
		}
	}
	return v * depth
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
