// Package preset defines the parameter bundle, its documented defaults and a
// versioned JSON codec that migrates older documents forward.
package preset

import (
	"github.com/cbegin/websynth-go/internal/arp"
	"github.com/cbegin/websynth-go/internal/modulation"
	"github.com/cbegin/websynth-go/internal/transport"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 3

type Master struct {
	Volume   float64 `json:"volume"`
	Attack   float64 `json:"attack"`
	Release  float64 `json:"release"`
	Waveform string  `json:"waveform"`
	Octave   int     `json:"octave"`
	Mono     bool    `json:"mono"`
}

type Filter struct {
	Frequency float64 `json:"frequency"`
	Q         float64 `json:"Q"`
}

type Reverb struct {
	Decay float64 `json:"decay"`
	Wet   float64 `json:"wet"`
}

type Delay struct {
	Time     float64 `json:"time"`
	Feedback float64 `json:"feedback"`
	Wet      float64 `json:"wet"`
}

type Distortion struct {
	Amount float64 `json:"amount"`
	Wet    float64 `json:"wet"`
}

type Effects struct {
	Lowpass    Filter     `json:"lowpass"`
	Highpass   Filter     `json:"highpass"`
	Reverb     Reverb     `json:"reverb"`
	Delay      Delay      `json:"delay"`
	Distortion Distortion `json:"distortion"`
}

type Oscillator struct {
	Waveform     string  `json:"waveform"`
	SubOscLevel  float64 `json:"subOscLevel"`
	SubOscOctave int     `json:"subOscOctave"`
	NoiseLevel   float64 `json:"noiseLevel"`
	NoiseType    string  `json:"noiseType"`
}

type LFO struct {
	Rate     float64 `json:"rate"`
	Depth    float64 `json:"depth"`
	Waveform string  `json:"waveform"`
}

type Glide struct {
	Enabled bool    `json:"enabled"`
	Time    float64 `json:"time"`
}

type FilterEnvelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
	Amount  float64 `json:"amount"`
}

// Modulated is the shape shared by chorus and phaser.
type Modulated struct {
	Rate  float64 `json:"rate"`
	Depth float64 `json:"depth"`
	Wet   float64 `json:"wet"`
}

type Arpeggiator struct {
	Enabled bool           `json:"enabled"`
	Pattern arp.Pattern    `json:"pattern"`
	Rate    transport.Rate `json:"rate"`
	Octaves int            `json:"octaves"`
}

type Tempo struct {
	BPM float64 `json:"bpm"`
}

// Params is the complete synth parameter bundle.
type Params struct {
	Master         Master               `json:"master"`
	Effects        Effects              `json:"effects"`
	Oscillator     Oscillator           `json:"oscillator"`
	LFO            LFO                  `json:"lfo"`
	ModRouting     []modulation.Routing `json:"modRouting"`
	Glide          Glide                `json:"glide"`
	FilterEnvelope FilterEnvelope       `json:"filterEnvelope"`
	Chorus         Modulated            `json:"chorus"`
	Phaser         Modulated            `json:"phaser"`
	Arpeggiator    Arpeggiator          `json:"arpeggiator"`
	Tempo          Tempo                `json:"tempo"`
	PitchBendRange float64              `json:"pitchBendRange"`
}

// Routing returns the routing for target, or a disabled zero routing.
func (p Params) Routing(target modulation.Target) modulation.Routing {
	for _, r := range p.ModRouting {
		if r.Target == target {
			return r
		}
	}
	return modulation.Routing{Target: target}
}

// Clone returns a copy that shares no slices with p.
func (p Params) Clone() Params {
	p.ModRouting = append([]modulation.Routing(nil), p.ModRouting...)
	return p
}

func Defaults() Params {
	return Params{
		Master: Master{
			Volume:   -12,
			Attack:   0.01,
			Release:  0.3,
			Waveform: "sawtooth",
			Octave:   3,
		},
		Effects: Effects{
			Lowpass:    Filter{Frequency: 20000, Q: 1},
			Highpass:   Filter{Frequency: 20, Q: 1},
			Reverb:     Reverb{Decay: 1.5, Wet: 0},
			Delay:      Delay{Time: 0.25, Feedback: 0.3, Wet: 0},
			Distortion: Distortion{Amount: 0, Wet: 0.5},
		},
		Oscillator: Oscillator{
			Waveform:     "sawtooth",
			SubOscOctave: -1,
			NoiseType:    "white",
		},
		LFO:            LFO{Rate: 1, Depth: 0.5, Waveform: "sine"},
		ModRouting:     []modulation.Routing{{Target: modulation.FilterCutoff}},
		Glide:          Glide{Time: 0.1},
		FilterEnvelope: FilterEnvelope{Attack: 0.01, Decay: 0.3, Sustain: 0.5, Release: 0.5},
		Chorus:         Modulated{Rate: 1.5, Depth: 0.7},
		Phaser:         Modulated{Rate: 0.5, Depth: 0.5},
		Arpeggiator:    Arpeggiator{Pattern: arp.Up, Rate: transport.Eighth, Octaves: 1},
		Tempo:          Tempo{BPM: transport.DefaultBPM},
		PitchBendRange: 2,
	}
}
