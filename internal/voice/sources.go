package voice

import (
	"math"
	"math/rand/v2"

	"github.com/cbegin/websynth-go/internal/envelope"
	"github.com/cbegin/websynth-go/internal/ramp"
)

// SubOsc is the monophonic sine sub oscillator. It tracks the most recent
// note and has its own envelope and level.
type SubOsc struct {
	sampleRate float64
	freq       ramp.Param
	level      ramp.Param
	env        *envelope.ADSR
	phase      float64
	gainFrames int
}

func NewSubOsc(sampleRate int, level, attack, release float64) *SubOsc {
	return &SubOsc{
		sampleRate: float64(sampleRate),
		freq:       ramp.New(220),
		level:      ramp.New(level),
		env:        envelope.New(sampleRate, attack, EnvDecay, EnvSustain, release),
		gainFrames: ramp.Frames(ramp.Default, sampleRate),
	}
}

// SetFrequency jumps to hz, or glides there over frames samples when frames > 0.
func (s *SubOsc) SetFrequency(hz float64, frames int) {
	if frames > 0 {
		s.freq.SetTarget(hz, frames)
		return
	}
	s.freq.Set(hz)
}

func (s *SubOsc) Frequency() float64 { return s.freq.Target() }
func (s *SubOsc) SetLevel(v float64) { s.level.SetTarget(v, s.gainFrames) }
func (s *SubOsc) Envelope() *envelope.ADSR { return s.env }

func (s *SubOsc) Render() float64 {
	f := s.freq.Next()
	lvl := s.level.Next()
	if !s.env.Active() {
		return 0
	}
	out := math.Sin(2*math.Pi*s.phase) * s.env.Next() * lvl
	s.phase += f / s.sampleRate
	for s.phase >= 1 {
		s.phase -= 1
	}
	return out
}

// NoiseType selects the noise colour.
type NoiseType int

const (
	White NoiseType = iota
	Pink
	Brown
)

func ParseNoiseType(name string) (NoiseType, bool) {
	switch name {
	case "white":
		return White, true
	case "pink":
		return Pink, true
	case "brown":
		return Brown, true
	}
	return White, false
}

func (n NoiseType) String() string {
	switch n {
	case Pink:
		return "pink"
	case Brown:
		return "brown"
	}
	return "white"
}

// Noise is the monophonic noise source.
type Noise struct {
	kind       NoiseType
	level      ramp.Param
	env        *envelope.ADSR
	rng        *rand.Rand
	gainFrames int

	b0, b1, b2, b3, b4, b5, b6 float64 // pink filter state
	brown                      float64
}

func NewNoise(sampleRate int, kind NoiseType, level, attack, release float64) *Noise {
	return &Noise{
		kind:       kind,
		level:      ramp.New(level),
		env:        envelope.New(sampleRate, attack, EnvDecay, EnvSustain, release),
		rng:        rand.New(rand.NewPCG(0x5eed, 0x401e)),
		gainFrames: ramp.Frames(ramp.Default, sampleRate),
	}
}

func (n *Noise) SetType(kind NoiseType) { n.kind = kind }
func (n *Noise) Type() NoiseType { return n.kind }
func (n *Noise) SetLevel(v float64) { n.level.SetTarget(v, n.gainFrames) }
func (n *Noise) Envelope() *envelope.ADSR { return n.env }

func (n *Noise) Render() float64 {
	lvl := n.level.Next()
	if !n.env.Active() {
		return 0
	}
	white := n.rng.Float64()*2 - 1
	var v float64
	switch n.kind {
	case Pink:
		n.b0 = 0.99886*n.b0 + white*0.0555179
		n.b1 = 0.99332*n.b1 + white*0.0750759
		n.b2 = 0.96900*n.b2 + white*0.1538520
		n.b3 = 0.86650*n.b3 + white*0.3104856
		n.b4 = 0.55000*n.b4 + white*0.5329522
		n.b5 = -0.7616*n.b5 - white*0.0168980
		v = (n.b0 + n.b1 + n.b2 + n.b3 + n.b4 + n.b5 + n.b6 + white*0.5362) * 0.11
		n.b6 = white * 0.115926
	case Brown:
		n.brown = (n.brown + 0.02*white) / 1.02
		v = n.brown * 3.5
	default:
		v = white
	}
	return v * n.env.Next() * lvl
}
