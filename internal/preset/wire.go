package preset

import "github.com/cbegin/websynth-go/internal/modulation"

// The wire structs mirror Params with pointer fields so a missing or
// mistyped field can be told apart from a zero value.

type wireMaster struct {
	Volume   *float64 `json:"volume"`
	Attack   *float64 `json:"attack"`
	Release  *float64 `json:"release"`
	Waveform *string  `json:"waveform"`
	Octave   *int     `json:"octave"`
	Mono     *bool    `json:"mono"`
}

type wireFilter struct {
	Frequency *float64 `json:"frequency"`
	Q         *float64 `json:"Q"`
}

type wireReverb struct {
	Decay *float64 `json:"decay"`
	Wet   *float64 `json:"wet"`
}

type wireDelay struct {
	Time     *float64 `json:"time"`
	Feedback *float64 `json:"feedback"`
	Wet      *float64 `json:"wet"`
}

type wireDistortion struct {
	Amount *float64 `json:"amount"`
	Wet    *float64 `json:"wet"`
}

type wireEffects struct {
	Lowpass    *wireFilter     `json:"lowpass"`
	Highpass   *wireFilter     `json:"highpass"`
	Reverb     *wireReverb     `json:"reverb"`
	Delay      *wireDelay      `json:"delay"`
	Distortion *wireDistortion `json:"distortion"`
}

type wireOscillator struct {
	Waveform     *string  `json:"waveform"`
	SubOscLevel  *float64 `json:"subOscLevel"`
	SubOscOctave *int     `json:"subOscOctave"`
	NoiseLevel   *float64 `json:"noiseLevel"`
	NoiseType    *string  `json:"noiseType"`
}

type wireLFO struct {
	Rate     *float64 `json:"rate"`
	Depth    *float64 `json:"depth"`
	Waveform *string  `json:"waveform"`
}

type wireRouting struct {
	Target  *string  `json:"target"`
	Amount  *float64 `json:"amount"`
	Enabled *bool    `json:"enabled"`
}

type wireGlide struct {
	Enabled *bool    `json:"enabled"`
	Time    *float64 `json:"time"`
}

type wireFilterEnvelope struct {
	Attack  *float64 `json:"attack"`
	Decay   *float64 `json:"decay"`
	Sustain *float64 `json:"sustain"`
	Release *float64 `json:"release"`
	Amount  *float64 `json:"amount"`
}

type wireModulated struct {
	Rate  *float64 `json:"rate"`
	Depth *float64 `json:"depth"`
	Wet   *float64 `json:"wet"`
}

type wireArpeggiator struct {
	Enabled *bool   `json:"enabled"`
	Pattern *string `json:"pattern"`
	Rate    *string `json:"rate"`
	Octaves *int    `json:"octaves"`
}

// wireTempo keeps the version 1 sync flag so the migration can drop it.
type wireTempo struct {
	BPM  *float64 `json:"bpm"`
	Sync *bool    `json:"sync,omitempty"`
}

type wireParams struct {
	Version        *int                `json:"version"`
	Master         *wireMaster         `json:"master"`
	Effects        *wireEffects        `json:"effects"`
	Oscillator     *wireOscillator     `json:"oscillator"`
	LFO            *wireLFO            `json:"lfo"`
	ModRouting     []wireRouting       `json:"modRouting"`
	Glide          *wireGlide          `json:"glide"`
	FilterEnvelope *wireFilterEnvelope `json:"filterEnvelope"`
	Chorus         *wireModulated      `json:"chorus"`
	Phaser         *wireModulated      `json:"phaser"`
	Arpeggiator    *wireArpeggiator    `json:"arpeggiator"`
	Tempo          *wireTempo          `json:"tempo"`
	PitchBendRange *float64            `json:"pitchBendRange"`
}

// migrations[v] moves a document from version v to v+1.
var migrations = map[int]func(wireParams) wireParams{
	1: migrateV1,
	2: migrateV2,
}

// migrateV1 keeps only the filterCutoff routing and only the bpm tempo field.
func migrateV1(w wireParams) wireParams {
	if w.ModRouting != nil {
		target := string(modulation.FilterCutoff)
		amount, enabled := 0.0, false
		kept := wireRouting{Target: &target, Amount: &amount, Enabled: &enabled}
		for _, r := range w.ModRouting {
			if r.Target == nil || *r.Target != target {
				continue
			}
			if r.Amount != nil {
				kept.Amount = r.Amount
			}
			if r.Enabled != nil {
				kept.Enabled = r.Enabled
			}
			break
		}
		w.ModRouting = []wireRouting{kept}
	}
	if w.Tempo != nil {
		w.Tempo = &wireTempo{BPM: w.Tempo.BPM}
	}
	v := 2
	w.Version = &v
	return w
}

// migrateV2 introduces the pitch bend range.
func migrateV2(w wireParams) wireParams {
	if w.PitchBendRange == nil {
		r := defaultPitchBendRange
		w.PitchBendRange = &r
	}
	v := 3
	w.Version = &v
	return w
}
