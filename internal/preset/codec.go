package preset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbegin/websynth-go/internal/arp"
	"github.com/cbegin/websynth-go/internal/lfo"
	"github.com/cbegin/websynth-go/internal/modulation"
	"github.com/cbegin/websynth-go/internal/transport"
	"github.com/cbegin/websynth-go/internal/voice"
)

const defaultPitchBendRange = 2.0

// DecodeError lists what Decode had to substitute. It never means the
// returned Params are unusable.
type DecodeError struct {
	Version int
	Issues  []string
	Err     error
}

func (e *DecodeError) Error() string {
	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	parts = append(parts, e.Issues...)
	return fmt.Sprintf("preset v%d: %s", e.Version, strings.Join(parts, "; "))
}

func (e *DecodeError) Unwrap() error { return e.Err }

type document struct {
	Version int `json:"version"`
	Params
}

// Encode writes p as a current-version document.
func Encode(p Params) ([]byte, error) {
	return json.MarshalIndent(document{Version: CurrentVersion, Params: p}, "", "  ")
}

// Decode reads a document of any known version. The returned Params are
// always usable; a non-nil error is a *DecodeError describing substitutions.
func Decode(data []byte) (Params, error) {
	var w wireParams
	derr := &DecodeError{Version: 1}
	if err := json.Unmarshal(data, &w); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); !ok {
			derr.Err = err
			return Defaults(), derr
		}
		// Mistyped fields stay nil and fall back to defaults below.
		derr.Issues = append(derr.Issues, err.Error())
	}

	version := 1
	if w.Version != nil {
		version = *w.Version
	}
	derr.Version = version
	switch {
	case version < 1:
		derr.Issues = append(derr.Issues, fmt.Sprintf("unknown version %d, treated as 1", version))
		version = 1
	case version > CurrentVersion:
		derr.Issues = append(derr.Issues, fmt.Sprintf("version %d is newer than %d", version, CurrentVersion))
		version = CurrentVersion
	}
	for v := version; v < CurrentVersion; v++ {
		w = migrations[v](w)
	}

	r := resolver{}
	p := r.resolve(w)
	derr.Issues = append(derr.Issues, r.issues...)
	if len(derr.Issues) > 0 {
		return p, derr
	}
	return p, nil
}

type resolver struct {
	issues []string
}

func (r *resolver) issue(format string, args ...any) {
	r.issues = append(r.issues, fmt.Sprintf(format, args...))
}

func num(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func integer(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func flag(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// enum copies src into dst when valid reports it as known.
func (r *resolver) enum(field string, dst *string, src *string, valid func(string) bool) {
	if src == nil {
		return
	}
	if !valid(*src) {
		r.issue("%s: unknown value %q", field, *src)
		return
	}
	*dst = *src
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

func (r *resolver) resolve(w wireParams) Params {
	p := Defaults()

	if m := w.Master; m != nil {
		num(&p.Master.Volume, m.Volume)
		num(&p.Master.Attack, m.Attack)
		num(&p.Master.Release, m.Release)
		r.enum("master.waveform", &p.Master.Waveform, m.Waveform, validWaveform)
		integer(&p.Master.Octave, m.Octave)
		flag(&p.Master.Mono, m.Mono)
	}

	if e := w.Effects; e != nil {
		if f := e.Lowpass; f != nil {
			num(&p.Effects.Lowpass.Frequency, f.Frequency)
			num(&p.Effects.Lowpass.Q, f.Q)
		}
		if f := e.Highpass; f != nil {
			num(&p.Effects.Highpass.Frequency, f.Frequency)
			num(&p.Effects.Highpass.Q, f.Q)
		}
		if v := e.Reverb; v != nil {
			num(&p.Effects.Reverb.Decay, v.Decay)
			num(&p.Effects.Reverb.Wet, v.Wet)
		}
		if d := e.Delay; d != nil {
			num(&p.Effects.Delay.Time, d.Time)
			num(&p.Effects.Delay.Feedback, d.Feedback)
			num(&p.Effects.Delay.Wet, d.Wet)
		}
		if d := e.Distortion; d != nil {
			num(&p.Effects.Distortion.Amount, d.Amount)
			num(&p.Effects.Distortion.Wet, d.Wet)
		}
	}

	if o := w.Oscillator; o != nil {
		r.enum("oscillator.waveform", &p.Oscillator.Waveform, o.Waveform, validWaveform)
		num(&p.Oscillator.SubOscLevel, o.SubOscLevel)
		if o.SubOscOctave != nil {
			if oct := *o.SubOscOctave; oct == -1 || oct == -2 {
				p.Oscillator.SubOscOctave = oct
			} else {
				r.issue("oscillator.subOscOctave: %d is not -1 or -2", oct)
			}
		}
		num(&p.Oscillator.NoiseLevel, o.NoiseLevel)
		r.enum("oscillator.noiseType", &p.Oscillator.NoiseType, o.NoiseType, validNoise)
	}

	if l := w.LFO; l != nil {
		num(&p.LFO.Rate, l.Rate)
		num(&p.LFO.Depth, l.Depth)
		r.enum("lfo.waveform", &p.LFO.Waveform, l.Waveform, validLFOWaveform)
	}

	if w.ModRouting != nil {
		p.ModRouting = r.routings(w.ModRouting)
	}

	if g := w.Glide; g != nil {
		flag(&p.Glide.Enabled, g.Enabled)
		num(&p.Glide.Time, g.Time)
	}

	if f := w.FilterEnvelope; f != nil {
		num(&p.FilterEnvelope.Attack, f.Attack)
		num(&p.FilterEnvelope.Decay, f.Decay)
		num(&p.FilterEnvelope.Sustain, f.Sustain)
		num(&p.FilterEnvelope.Release, f.Release)
		num(&p.FilterEnvelope.Amount, f.Amount)
	}

	resolveModulated(&p.Chorus, w.Chorus)
	resolveModulated(&p.Phaser, w.Phaser)

	if a := w.Arpeggiator; a != nil {
		flag(&p.Arpeggiator.Enabled, a.Enabled)
		pattern := string(p.Arpeggiator.Pattern)
		r.enum("arpeggiator.pattern", &pattern, a.Pattern, validPattern)
		p.Arpeggiator.Pattern = arp.Pattern(pattern)
		rate := string(p.Arpeggiator.Rate)
		r.enum("arpeggiator.rate", &rate, a.Rate, validRate)
		p.Arpeggiator.Rate = transport.Rate(rate)
		integer(&p.Arpeggiator.Octaves, a.Octaves)
	}

	if t := w.Tempo; t != nil {
		num(&p.Tempo.BPM, t.BPM)
	}
	num(&p.PitchBendRange, w.PitchBendRange)
	return p
}

func resolveModulated(dst *Modulated, src *wireModulated) {
	if src == nil {
		return
	}
	num(&dst.Rate, src.Rate)
	num(&dst.Depth, src.Depth)
	num(&dst.Wet, src.Wet)
}

// routings keeps one entry per known target. Unknown targets are dropped and
// every known target missing from the document gets a disabled entry.
func (r *resolver) routings(in []wireRouting) []modulation.Routing {
	seen := map[modulation.Target]modulation.Routing{}
	for _, wr := range in {
		if wr.Target == nil {
			r.issue("modRouting: entry without target")
			continue
		}
		target := modulation.Target(*wr.Target)
		if !knownTarget(target) {
			r.issue("modRouting: unknown target %q", *wr.Target)
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		rt := modulation.Routing{Target: target}
		num(&rt.Amount, wr.Amount)
		flag(&rt.Enabled, wr.Enabled)
		seen[target] = rt
	}
	out := make([]modulation.Routing, 0, len(modulation.Targets))
	for _, t := range modulation.Targets {
		if rt, ok := seen[t]; ok {
			out = append(out, rt)
		} else {
			out = append(out, modulation.Routing{Target: t})
		}
	}
	return out
}

func knownTarget(t modulation.Target) bool {
	for _, k := range modulation.Targets {
		if k == t {
			return true
		}
	}
	return false
}
