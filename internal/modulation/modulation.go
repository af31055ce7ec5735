// Package modulation sums the LFO and the filter envelope into the lowpass
// cutoff through a routing table.
package modulation

import (
	"github.com/cbegin/websynth-go/internal/envelope"
	"github.com/cbegin/websynth-go/internal/lfo"
	"github.com/cbegin/websynth-go/internal/ramp"
)

const (
	FilterEnvMaxSweepHz = 8000
	LFOFilterMaxRangeHz = 5000
)

// Target names a modulation destination.
type Target string

const FilterCutoff Target = "filterCutoff"

// Targets lists the supported destinations.
var Targets = []Target{FilterCutoff}

// Routing connects the LFO to a target. A disabled routing contributes nothing.
type Routing struct {
	Target  Target  `json:"target"`
	Amount  float64 `json:"amount"`
	Enabled bool    `json:"enabled"`
}

type route struct {
	routing Routing
	gain    ramp.Param
	scale   float64
}

// EnvelopeParams configures the filter envelope.
type EnvelopeParams struct {
	Attack, Decay, Sustain, Release, Amount float64
}

type Config struct {
	BaseCutoff  float64
	LFORate     float64
	LFODepth    float64
	LFOWaveform lfo.Waveform
	Envelope    EnvelopeParams
	Routings    []Routing
}

// Engine produces the modulated cutoff one sample at a time.
type Engine struct {
	lfo        *lfo.LFO
	env        *envelope.ADSR
	envAmount  ramp.Param
	baseCutoff ramp.Param
	routes     map[Target]*route

	fastFrames    int
	defaultFrames int
}

func New(sampleRate int, cfg Config) *Engine {
	e := &Engine{
		lfo:           lfo.New(sampleRate, cfg.LFORate, cfg.LFODepth, cfg.LFOWaveform),
		env:           envelope.New(sampleRate, cfg.Envelope.Attack, cfg.Envelope.Decay, cfg.Envelope.Sustain, cfg.Envelope.Release),
		envAmount:     ramp.New(clamp01(cfg.Envelope.Amount)),
		baseCutoff:    ramp.New(cfg.BaseCutoff),
		routes:        map[Target]*route{FilterCutoff: {routing: Routing{Target: FilterCutoff}, scale: LFOFilterMaxRangeHz}},
		fastFrames:    ramp.Frames(ramp.Fast, sampleRate),
		defaultFrames: ramp.Frames(ramp.Default, sampleRate),
	}
	for _, r := range cfg.Routings {
		if rt, ok := e.routes[r.Target]; ok {
			rt.routing = r
			rt.gain.Set(rt.level())
		}
	}
	return e
}

func (r *route) level() float64 {
	if !r.routing.Enabled {
		return 0
	}
	return r.routing.Amount * r.scale
}

// SetRouting updates a routing entry. Unsupported targets are ignored and
// reported with false.
func (e *Engine) SetRouting(r Routing) bool {
	rt, ok := e.routes[r.Target]
	if !ok {
		return false
	}
	rt.routing = r
	rt.gain.SetTarget(rt.level(), e.defaultFrames)
	return true
}

func (e *Engine) Routing(t Target) (Routing, bool) {
	rt, ok := e.routes[t]
	if !ok {
		return Routing{}, false
	}
	return rt.routing, true
}

// RouteGain is the current, possibly mid-ramp, LFO gain into t in Hz.
func (e *Engine) RouteGain(t Target) float64 {
	if rt, ok := e.routes[t]; ok {
		return rt.gain.Value()
	}
	return 0
}

func (e *Engine) LFO() *lfo.LFO { return e.lfo }

func (e *Engine) SetBaseCutoff(hz float64) { e.baseCutoff.SetTarget(hz, e.fastFrames) }
func (e *Engine) BaseCutoff() float64 { return e.baseCutoff.Target() }

func (e *Engine) SetEnvelopeAttack(s float64) { e.env.SetAttack(s) }
func (e *Engine) SetEnvelopeDecay(s float64) { e.env.SetDecay(s) }
func (e *Engine) SetEnvelopeSustain(v float64) { e.env.SetSustain(v) }
func (e *Engine) SetEnvelopeRelease(s float64) { e.env.SetRelease(s) }
func (e *Engine) SetEnvelopeAmount(v float64) {
	e.envAmount.SetTarget(clamp01(v), e.defaultFrames)
}

func (e *Engine) TriggerEnvelope() { e.env.Trigger() }
func (e *Engine) ReleaseEnvelope() { e.env.Release() }
func (e *Engine) Envelope() *envelope.ADSR { return e.env }

// Cutoff advances the LFO, the envelope and every ramp by one sample and
// returns base + envelope sweep + LFO contribution. The result is not
// clamped; the filter does that.
func (e *Engine) Cutoff() float64 {
	base := e.baseCutoff.Next()
	sweep := e.env.Next() * e.envAmount.Next() * FilterEnvMaxSweepHz
	l := e.lfo.Sample()
	rt := e.routes[FilterCutoff]
	return base + sweep + l*rt.gain.Next()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
