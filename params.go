package websynth

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/cbegin/websynth-go/internal/arp"
	interrors "github.com/cbegin/websynth-go/internal/errors"
	"github.com/cbegin/websynth-go/internal/keymap"
	"github.com/cbegin/websynth-go/internal/lfo"
	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/modulation"
	"github.com/cbegin/websynth-go/internal/preset"
	"github.com/cbegin/websynth-go/internal/transport"
	"github.com/cbegin/websynth-go/internal/voice"
)

type paramKind int

const (
	numberParam paramKind = iota
	intParam
	boolParam
	enumParam
)

// param describes one addressable parameter. set writes the model; sync
// pushes the model value into the running engine.
type param struct {
	kind   paramKind
	lo, hi float64
	valid  func(string) bool
	get    func(p *preset.Params) any
	set    func(p *preset.Params, v any)
	sync   func(e *Engine)
}

func number(lo, hi float64, field func(p *preset.Params) *float64, sync func(e *Engine)) param {
	return param{
		kind: numberParam, lo: lo, hi: hi,
		get:  func(p *preset.Params) any { return *field(p) },
		set:  func(p *preset.Params, v any) { *field(p) = v.(float64) },
		sync: sync,
	}
}

func integer(lo, hi float64, field func(p *preset.Params) *int, sync func(e *Engine)) param {
	return param{
		kind: intParam, lo: lo, hi: hi,
		get:  func(p *preset.Params) any { return *field(p) },
		set:  func(p *preset.Params, v any) { *field(p) = v.(int) },
		sync: sync,
	}
}

func toggle(field func(p *preset.Params) *bool, sync func(e *Engine)) param {
	return param{
		kind: boolParam,
		get:  func(p *preset.Params) any { return *field(p) },
		set:  func(p *preset.Params, v any) { *field(p) = v.(bool) },
		sync: sync,
	}
}

func enum(valid func(string) bool, get func(p *preset.Params) string, set func(p *preset.Params, s string), sync func(e *Engine)) param {
	return param{
		kind:  enumParam,
		valid: valid,
		get:   func(p *preset.Params) any { return get(p) },
		set:   func(p *preset.Params, v any) { set(p, v.(string)) },
		sync:  sync,
	}
}

func routing(p *preset.Params, target modulation.Target) *modulation.Routing {
	for i := range p.ModRouting {
		if p.ModRouting[i].Target == target {
			return &p.ModRouting[i]
		}
	}
	p.ModRouting = append(p.ModRouting, modulation.Routing{Target: target})
	return &p.ModRouting[len(p.ModRouting)-1]
}

func syncRouting(e *Engine) {
	e.mod.SetRouting(*routing(&e.params, modulation.FilterCutoff))
}

func syncEnvelopes(e *Engine) {
	a, r := e.params.Master.Attack, e.params.Master.Release
	e.pool.SetAttack(a)
	e.pool.SetRelease(r)
	for _, env := range []interface {
		SetAttack(float64)
		SetRelease(float64)
	}{e.sub.Envelope(), e.noise.Envelope()} {
		env.SetAttack(a)
		env.SetRelease(r)
	}
}

func syncWaveform(e *Engine) {
	e.pool.SetWaveform(voiceWaveform(e.params.Master.Waveform))
}

var paramTable = map[string]param{
	"master.volume": number(-60, 0, func(p *preset.Params) *float64 { return &p.Master.Volume },
		func(e *Engine) { e.rack.Master.SetDB(e.params.Master.Volume) }),
	"master.attack":  number(0.001, 2, func(p *preset.Params) *float64 { return &p.Master.Attack }, syncEnvelopes),
	"master.release": number(0.01, 2, func(p *preset.Params) *float64 { return &p.Master.Release }, syncEnvelopes),
	"master.waveform": enum(validWaveform,
		func(p *preset.Params) string { return p.Master.Waveform },
		func(p *preset.Params, s string) { p.Master.Waveform, p.Oscillator.Waveform = s, s },
		syncWaveform),
	"master.octave": integer(keymap.MinOctave, keymap.MaxOctave, func(p *preset.Params) *int { return &p.Master.Octave }, nil),
	"master.mono": toggle(func(p *preset.Params) *bool { return &p.Master.Mono },
		func(e *Engine) { e.setMono(e.params.Master.Mono) }),

	"effects.lowpass.frequency": number(100, 20000, func(p *preset.Params) *float64 { return &p.Effects.Lowpass.Frequency },
		func(e *Engine) { e.mod.SetBaseCutoff(e.params.Effects.Lowpass.Frequency) }),
	"effects.lowpass.Q": number(0.1, 15, func(p *preset.Params) *float64 { return &p.Effects.Lowpass.Q },
		func(e *Engine) { e.rack.Lowpass.SetQ(e.params.Effects.Lowpass.Q) }),
	"effects.highpass.frequency": number(20, 5000, func(p *preset.Params) *float64 { return &p.Effects.Highpass.Frequency },
		func(e *Engine) { e.rack.Highpass.SetFrequency(e.params.Effects.Highpass.Frequency) }),
	"effects.highpass.Q": number(0.1, 15, func(p *preset.Params) *float64 { return &p.Effects.Highpass.Q },
		func(e *Engine) { e.rack.Highpass.SetQ(e.params.Effects.Highpass.Q) }),
	"effects.reverb.decay": number(0.1, 10, func(p *preset.Params) *float64 { return &p.Effects.Reverb.Decay },
		func(e *Engine) { e.rack.Reverb.SetDecay(e.params.Effects.Reverb.Decay) }),
	"effects.reverb.wet": number(0, 1, func(p *preset.Params) *float64 { return &p.Effects.Reverb.Wet },
		func(e *Engine) { e.rack.Reverb.SetWet(e.params.Effects.Reverb.Wet) }),
	"effects.delay.time": number(0.01, 1, func(p *preset.Params) *float64 { return &p.Effects.Delay.Time },
		func(e *Engine) { e.rack.Delay.SetTime(e.params.Effects.Delay.Time) }),
	"effects.delay.feedback": number(0, 0.9, func(p *preset.Params) *float64 { return &p.Effects.Delay.Feedback },
		func(e *Engine) { e.rack.Delay.SetFeedback(e.params.Effects.Delay.Feedback) }),
	"effects.delay.wet": number(0, 1, func(p *preset.Params) *float64 { return &p.Effects.Delay.Wet },
		func(e *Engine) { e.rack.Delay.SetWet(e.params.Effects.Delay.Wet) }),
	"effects.distortion.amount": number(0, 1, func(p *preset.Params) *float64 { return &p.Effects.Distortion.Amount },
		func(e *Engine) { e.rack.Distortion.SetAmount(e.params.Effects.Distortion.Amount) }),
	"effects.distortion.wet": number(0, 1, func(p *preset.Params) *float64 { return &p.Effects.Distortion.Wet },
		func(e *Engine) { e.rack.Distortion.SetWet(e.params.Effects.Distortion.Wet) }),

	"oscillator.waveform": enum(validWaveform,
		func(p *preset.Params) string { return p.Oscillator.Waveform },
		func(p *preset.Params, s string) { p.Master.Waveform, p.Oscillator.Waveform = s, s },
		syncWaveform),
	"oscillator.subOscLevel": number(0, 1, func(p *preset.Params) *float64 { return &p.Oscillator.SubOscLevel },
		func(e *Engine) { e.sub.SetLevel(e.params.Oscillator.SubOscLevel) }),
	"oscillator.subOscOctave": integer(-2, -1, func(p *preset.Params) *int { return &p.Oscillator.SubOscOctave },
		func(e *Engine) {
			if e.current > 0 {
				e.sub.SetFrequency(e.subFrequency(e.current), 0)
			}
		}),
	"oscillator.noiseLevel": number(0, 1, func(p *preset.Params) *float64 { return &p.Oscillator.NoiseLevel },
		func(e *Engine) { e.noise.SetLevel(e.params.Oscillator.NoiseLevel) }),
	"oscillator.noiseType": enum(validNoise,
		func(p *preset.Params) string { return p.Oscillator.NoiseType },
		func(p *preset.Params, s string) { p.Oscillator.NoiseType = s },
		func(e *Engine) { e.noise.SetType(noiseType(e.params.Oscillator.NoiseType)) }),

	"lfo.rate": number(0.1, 20, func(p *preset.Params) *float64 { return &p.LFO.Rate },
		func(e *Engine) { e.mod.LFO().SetRate(e.params.LFO.Rate, e.defaultFrames()) }),
	"lfo.depth": number(0, 1, func(p *preset.Params) *float64 { return &p.LFO.Depth },
		func(e *Engine) { e.mod.LFO().SetDepth(e.params.LFO.Depth, e.defaultFrames()) }),
	"lfo.waveform": enum(validLFOWaveform,
		func(p *preset.Params) string { return p.LFO.Waveform },
		func(p *preset.Params, s string) { p.LFO.Waveform = s },
		func(e *Engine) { e.mod.LFO().SetWaveform(lfoWaveform(e.params.LFO.Waveform)) }),

	"modRouting.filterCutoff.amount": number(0, 1,
		func(p *preset.Params) *float64 { return &routing(p, modulation.FilterCutoff).Amount }, syncRouting),
	"modRouting.filterCutoff.enabled": toggle(
		func(p *preset.Params) *bool { return &routing(p, modulation.FilterCutoff).Enabled }, syncRouting),

	"glide.enabled": toggle(func(p *preset.Params) *bool { return &p.Glide.Enabled },
		func(e *Engine) { e.mono.SetGlide(e.params.Glide.Enabled) }),
	"glide.time": number(0.01, 2, func(p *preset.Params) *float64 { return &p.Glide.Time }, nil),

	"filterEnvelope.attack": number(0.001, 2, func(p *preset.Params) *float64 { return &p.FilterEnvelope.Attack },
		func(e *Engine) { e.mod.SetEnvelopeAttack(e.params.FilterEnvelope.Attack) }),
	"filterEnvelope.decay": number(0.01, 2, func(p *preset.Params) *float64 { return &p.FilterEnvelope.Decay },
		func(e *Engine) { e.mod.SetEnvelopeDecay(e.params.FilterEnvelope.Decay) }),
	"filterEnvelope.sustain": number(0, 1, func(p *preset.Params) *float64 { return &p.FilterEnvelope.Sustain },
		func(e *Engine) { e.mod.SetEnvelopeSustain(e.params.FilterEnvelope.Sustain) }),
	"filterEnvelope.release": number(0.01, 5, func(p *preset.Params) *float64 { return &p.FilterEnvelope.Release },
		func(e *Engine) { e.mod.SetEnvelopeRelease(e.params.FilterEnvelope.Release) }),
	"filterEnvelope.amount": number(0, 1, func(p *preset.Params) *float64 { return &p.FilterEnvelope.Amount },
		func(e *Engine) { e.mod.SetEnvelopeAmount(e.params.FilterEnvelope.Amount) }),

	"chorus.rate": number(0.1, 10, func(p *preset.Params) *float64 { return &p.Chorus.Rate },
		func(e *Engine) { e.rack.Chorus.SetRate(e.params.Chorus.Rate) }),
	"chorus.depth": number(0, 1, func(p *preset.Params) *float64 { return &p.Chorus.Depth },
		func(e *Engine) { e.rack.Chorus.SetDepth(e.params.Chorus.Depth) }),
	"chorus.wet": number(0, 1, func(p *preset.Params) *float64 { return &p.Chorus.Wet },
		func(e *Engine) { e.rack.Chorus.SetWet(e.params.Chorus.Wet) }),

	"phaser.rate": number(0.1, 10, func(p *preset.Params) *float64 { return &p.Phaser.Rate },
		func(e *Engine) { e.rack.Phaser.SetRate(e.params.Phaser.Rate) }),
	"phaser.depth": number(0, 1, func(p *preset.Params) *float64 { return &p.Phaser.Depth },
		func(e *Engine) { e.rack.Phaser.SetDepth(e.params.Phaser.Depth) }),
	"phaser.wet": number(0, 1, func(p *preset.Params) *float64 { return &p.Phaser.Wet },
		func(e *Engine) { e.rack.Phaser.SetWet(e.params.Phaser.Wet) }),

	"arpeggiator.enabled": toggle(func(p *preset.Params) *bool { return &p.Arpeggiator.Enabled }, syncArpEnabled),
	"arpeggiator.pattern": enum(validPattern,
		func(p *preset.Params) string { return string(p.Arpeggiator.Pattern) },
		func(p *preset.Params, s string) { p.Arpeggiator.Pattern = arp.Pattern(s) },
		func(e *Engine) { e.arp.SetPattern(e.params.Arpeggiator.Pattern) }),
	"arpeggiator.rate": enum(validRate,
		func(p *preset.Params) string { return string(p.Arpeggiator.Rate) },
		func(p *preset.Params, s string) { p.Arpeggiator.Rate = transport.Rate(s) },
		func(e *Engine) { e.arp.SetRate(e.params.Arpeggiator.Rate) }),
	"arpeggiator.octaves": integer(arp.MinOctaves, arp.MaxOctaves, func(p *preset.Params) *int { return &p.Arpeggiator.Octaves },
		func(e *Engine) { e.arp.SetOctaves(e.params.Arpeggiator.Octaves) }),

	"tempo.bpm": number(transport.MinBPM, transport.MaxBPM, func(p *preset.Params) *float64 { return &p.Tempo.BPM },
		func(e *Engine) { e.transport.SetBPM(e.params.Tempo.BPM) }),

	"pitchBendRange": number(1, 12, func(p *preset.Params) *float64 { return &p.PitchBendRange },
		func(e *Engine) { e.applyBend() }),
}

// syncArpEnabled hands playback between the arpeggiator and the keyboard
// paths. Whatever the old path was holding is released.
func syncArpEnabled(e *Engine) {
	enabled := e.params.Arpeggiator.Enabled
	if enabled == e.arp.Enabled() {
		return
	}
	if enabled {
		e.stopAllVoices()
		e.arp.SetEnabled(true)
		return
	}
	e.arp.SetEnabled(false)
	e.arp.ClearNotes()
	clear(e.held)
	clear(e.codes)
}

// ParamPaths lists every path accepted by Set, sorted.
func ParamPaths() []string {
	paths := make([]string, 0, len(paramTable))
	for path := range paramTable {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Set changes one parameter by path, e.g. "effects.lowpass.frequency" or
// "lfo.waveform". Numbers are clamped to the parameter's range. Unknown paths
// fail with ErrUnknownParam and malformed values with ErrInvalidValue, both
// wrapped in a *ParamError.
func (e *Engine) Set(path string, value any) error {
	def, ok := paramTable[path]
	if !ok {
		return interrors.NewParamError(path, value, interrors.ErrUnknownParam)
	}
	v, ok := def.coerce(value)
	if !ok {
		return interrors.NewParamError(path, value, interrors.ErrInvalidValue)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	def.set(&e.params, v)
	if e.initialized && def.sync != nil {
		def.sync(e)
	}
	return nil
}

// Get returns the model value at path.
func (e *Engine) Get(path string) (any, error) {
	def, ok := paramTable[path]
	if !ok {
		return nil, interrors.NewParamError(path, nil, interrors.ErrUnknownParam)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return def.get(&e.params), nil
}

// Params returns a copy of the current parameter bundle.
func (e *Engine) Params() preset.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Clone()
}

// LoadParams applies a whole bundle. Out-of-range values are clamped and
// invalid enum values keep their current setting.
func (e *Engine) LoadParams(p preset.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = merge(e.params, p)
	if !e.initialized {
		return
	}
	for _, path := range ParamPaths() {
		if def := paramTable[path]; def.sync != nil {
			def.sync(e)
		}
	}
}

// LoadPreset decodes a preset document of any version and applies it.
// Decode problems are logged and returned, but the usable part of the
// document is applied either way.
func (e *Engine) LoadPreset(data []byte) error {
	p, err := preset.Decode(data)
	if err != nil {
		logger.Warn("preset decoded with substitutions", logger.Fields{
			"session": e.Session(),
			"error":   err.Error(),
		})
	}
	e.LoadParams(p)
	return err
}

// merge copies every valid field of src over dst, clamping numbers.
func merge(dst, src preset.Params) preset.Params {
	out := dst.Clone()
	src = src.Clone()
	for _, path := range ParamPaths() {
		def := paramTable[path]
		if v, ok := def.coerce(def.get(&src)); ok {
			def.set(&out, v)
		}
	}
	return out
}

// sanitize clamps a bundle against the defaults.
func sanitize(p preset.Params) preset.Params {
	return merge(preset.Defaults(), p)
}

func (pm param) coerce(value any) (any, bool) {
	switch pm.kind {
	case numberParam:
		f, ok := toFloat(value)
		if !ok {
			return nil, false
		}
		return math.Max(pm.lo, math.Min(pm.hi, f)), true
	case intParam:
		f, ok := toFloat(value)
		if !ok {
			return nil, false
		}
		return int(math.Max(pm.lo, math.Min(pm.hi, math.Round(f)))), true
	case boolParam:
		b, ok := value.(bool)
		return b, ok
	case enumParam:
		s, ok := value.(string)
		if !ok || !pm.valid(s) {
			return nil, false
		}
		return s, true
	}
	return nil, false
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func validWaveform(s string) bool {
	_, ok := voice.ParseWaveform(s)
	return ok
}

func validLFOWaveform(s string) bool {
	_, ok := lfo.ParseWaveform(s)
	return ok
}

func validNoise(s string) bool {
	_, ok := voice.ParseNoiseType(s)
	return ok
}

func validPattern(s string) bool {
	_, err := arp.ParsePattern(s)
	return err == nil
}

func validRate(s string) bool {
	_, ok := transport.ParseRate(s)
	return ok
}
