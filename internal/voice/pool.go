// Package voice renders the polyphonic oscillator voices and the monophonic
// sub oscillator and noise sources that follow them.
package voice

import (
	"github.com/cbegin/websynth-go/internal/envelope"
	"github.com/cbegin/websynth-go/internal/ramp"
)

// MaxVoices is the polyphony limit.
const MaxVoices = 4

// Fixed decay and sustain of the amplitude envelopes.
const (
	EnvDecay   = 0.1
	EnvSustain = 0.9
)

const voiceGain = 0.5

type voice struct {
	key   float64 // bent frequency at trigger time; identifies the voice for release
	base  float64 // unbent frequency the oscillator is tuned to
	phase float64
	env   *envelope.ADSR
	order uint64

	portamentoTarget float64
	portamentoFrames int
	portamentoStep   float64
}

// Pool owns the poly voices. Voices are released on note-off and reused,
// never reallocated.
type Pool struct {
	sampleRate float64
	voices     [MaxVoices]voice
	waveform   Waveform
	bend       ramp.Param // frequency ratio applied to every voice
	bendFrames int
	counter    uint64
	onSteal    func(stolen, key float64)
}

func NewPool(sampleRate int, waveform Waveform, attack, release float64) *Pool {
	p := &Pool{
		sampleRate: float64(sampleRate),
		waveform:   waveform,
		bend:       ramp.New(1),
		bendFrames: ramp.Frames(ramp.Fast, sampleRate),
	}
	for i := range p.voices {
		p.voices[i].env = envelope.New(sampleRate, attack, EnvDecay, EnvSustain, release)
	}
	return p
}

// Attack triggers a voice for base and returns the key to release it with.
// With glideFrames > 0 the voice slides from glideFrom to base.
func (p *Pool) Attack(base, glideFrom float64, glideFrames int) float64 {
	key := base * p.bend.Target()
	slot := p.allocate(key)
	v := &p.voices[slot]
	p.counter++
	v.order = p.counter
	v.key = key
	v.base = base
	v.portamentoFrames = 0
	if glideFrames > 0 && glideFrom > 0 {
		v.base = glideFrom
		v.portamentoTarget = base
		v.portamentoFrames = glideFrames
		v.portamentoStep = (base - glideFrom) / float64(glideFrames)
	}
	v.env.Trigger()
	return key
}

// Release starts the release of the gated voice with the given key.
// It reports false when no such voice is sounding.
func (p *Pool) Release(key float64) bool {
	for i := range p.voices {
		v := &p.voices[i]
		if v.key == key && v.env.Gated() {
			v.env.Release()
			return true
		}
	}
	return false
}

func (p *Pool) ReleaseAll() {
	for i := range p.voices {
		p.voices[i].env.Release()
	}
}

// allocate prefers the voice already holding key, then an idle voice, then
// the quietest released voice, then the quietest gated one.
func (p *Pool) allocate(key float64) int {
	for i := range p.voices {
		if p.voices[i].key == key && p.voices[i].env.Active() {
			return i
		}
	}
	for i := range p.voices {
		if !p.voices[i].env.Active() {
			return i
		}
	}
	quiet := -1
	for i := range p.voices {
		if p.voices[i].env.Gated() {
			continue
		}
		if quiet < 0 || p.voices[i].env.Level() < p.voices[quiet].env.Level() {
			quiet = i
		}
	}
	if quiet >= 0 {
		return quiet
	}
	quiet = 0
	for i := 1; i < len(p.voices); i++ {
		if p.voices[i].env.Level() < p.voices[quiet].env.Level() {
			quiet = i
		}
	}
	if p.onSteal != nil {
		p.onSteal(p.voices[quiet].base, key)
	}
	return quiet
}

// OnSteal registers fn to be called when a held voice is taken for a new
// note. fn receives the stolen voice's frequency and the new key.
func (p *Pool) OnSteal(fn func(stolen, key float64)) { p.onSteal = fn }

// SetBend retunes every voice by ratio, ramped.
func (p *Pool) SetBend(ratio float64) { p.bend.SetTarget(ratio, p.bendFrames) }

func (p *Pool) SetWaveform(w Waveform) { p.waveform = w }
func (p *Pool) Waveform() Waveform { return p.waveform }

func (p *Pool) SetAttack(s float64) {
	for i := range p.voices {
		p.voices[i].env.SetAttack(s)
	}
}

func (p *Pool) SetRelease(s float64) {
	for i := range p.voices {
		p.voices[i].env.SetRelease(s)
	}
}

// Gated counts voices whose note is still held.
func (p *Pool) Gated() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].env.Gated() {
			n++
		}
	}
	return n
}

// Active counts voices producing output, including release tails.
func (p *Pool) Active() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].env.Active() {
			n++
		}
	}
	return n
}

// Render advances every voice one sample and returns the mono mix.
func (p *Pool) Render() float64 {
	ratio := p.bend.Next()
	var out float64
	for i := range p.voices {
		v := &p.voices[i]
		if !v.env.Active() {
			continue
		}
		if v.portamentoFrames > 0 {
			v.portamentoFrames--
			v.base += v.portamentoStep
			if v.portamentoFrames == 0 {
				v.base = v.portamentoTarget
			}
		}
		env := v.env.Next()
		out += sample(v.phase, p.waveform) * env
		v.phase += v.base * ratio / p.sampleRate
		for v.phase >= 1 {
			v.phase -= 1
		}
	}
	return out * voiceGain
}

// Reset silences every voice.
func (p *Pool) Reset() {
	for i := range p.voices {
		p.voices[i].env.Reset()
		p.voices[i].phase = 0
		p.voices[i].portamentoFrames = 0
	}
}
