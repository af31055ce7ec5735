package preset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/websynth-go/internal/arp"
	"github.com/cbegin/websynth-go/internal/modulation"
	"github.com/cbegin/websynth-go/internal/transport"
)

const v1Document = `{
  "master": {"volume": -6, "attack": 0.2, "release": 1, "waveform": "square", "octave": 4},
  "lfo": {"rate": 4, "depth": 0.3, "waveform": "triangle"},
  "modRouting": [
    {"target": "pwm", "amount": 0.9, "enabled": true},
    {"target": "filterCutoff", "amount": 0.4, "enabled": true},
    {"target": "pitch", "amount": 0.1, "enabled": true}
  ],
  "tempo": {"bpm": 98, "sync": true}
}`

func TestDecodeMigratesVersion1(t *testing.T) {
	p, err := Decode([]byte(v1Document))
	require.NoError(t, err)

	assert.Equal(t, 2.0, p.PitchBendRange)
	assert.Equal(t, []modulation.Routing{{Target: modulation.FilterCutoff, Amount: 0.4, Enabled: true}}, p.ModRouting)
	assert.Equal(t, 98.0, p.Tempo.BPM)
	assert.Equal(t, -6.0, p.Master.Volume)
	assert.Equal(t, "square", p.Master.Waveform)
	assert.Equal(t, 4, p.Master.Octave)
	assert.False(t, p.Master.Mono)
	assert.Equal(t, "triangle", p.LFO.Waveform)
	// Untouched sections keep their defaults.
	assert.Equal(t, Defaults().Effects, p.Effects)
	assert.Equal(t, Defaults().Arpeggiator, p.Arpeggiator)
}

func TestDecodeVersion1WithoutFilterRoutingGetsDisabledEntry(t *testing.T) {
	p, err := Decode([]byte(`{"modRouting": [{"target": "pwm", "amount": 1, "enabled": true}]}`))
	require.NoError(t, err)
	assert.Equal(t, []modulation.Routing{{Target: modulation.FilterCutoff}}, p.ModRouting)
}

func TestDecodeVersion2KeepsExplicitBendRange(t *testing.T) {
	p, err := Decode([]byte(`{"version": 2, "pitchBendRange": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, p.PitchBendRange)
}

func TestDecodeVersion2AddsBendRange(t *testing.T) {
	p, err := Decode([]byte(`{"version": 2, "tempo": {"bpm": 140}}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.PitchBendRange)
	assert.Equal(t, 140.0, p.Tempo.BPM)
}

func TestDecodeGarbageReturnsDefaults(t *testing.T) {
	p, err := Decode([]byte(`{not json`))
	require.Error(t, err)
	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.NotNil(t, derr.Err)
	assert.Equal(t, Defaults(), p)
}

func TestDecodeMistypedFieldsFallBack(t *testing.T) {
	doc := `{"version": 3, "master": {"volume": "loud", "attack": 0.5}, "lfo": {"waveform": "wobble"}}`
	p, err := Decode([]byte(doc))
	require.Error(t, err)
	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Len(t, derr.Issues, 2)

	assert.Equal(t, Defaults().Master.Volume, p.Master.Volume)
	assert.Equal(t, 0.5, p.Master.Attack)
	assert.Equal(t, "sine", p.LFO.Waveform)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	p, err := Decode([]byte(`{"version": 3, "theme": "dark", "master": {"volume": -3, "pan": 1}}`))
	require.NoError(t, err)
	assert.Equal(t, -3.0, p.Master.Volume)
}

func TestDecodeRejectsInvalidEnums(t *testing.T) {
	doc := `{"version": 3,
		"oscillator": {"subOscOctave": -3, "noiseType": "purple"},
		"arpeggiator": {"pattern": "sideways", "rate": "1/5", "octaves": 2}}`
	p, err := Decode([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, -1, p.Oscillator.SubOscOctave)
	assert.Equal(t, "white", p.Oscillator.NoiseType)
	assert.Equal(t, arp.Up, p.Arpeggiator.Pattern)
	assert.Equal(t, transport.Eighth, p.Arpeggiator.Rate)
	assert.Equal(t, 2, p.Arpeggiator.Octaves)
}

func TestDecodeFutureVersionIsReported(t *testing.T) {
	p, err := Decode([]byte(`{"version": 9, "tempo": {"bpm": 100}}`))
	require.Error(t, err)
	assert.Equal(t, 100.0, p.Tempo.BPM)
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	p := Defaults()
	p.Master.Mono = true
	p.Arpeggiator = Arpeggiator{Enabled: true, Pattern: arp.UpDown, Rate: transport.Sixteenth, Octaves: 3}
	p.ModRouting = []modulation.Routing{{Target: modulation.FilterCutoff, Amount: 0.8, Enabled: true}}

	data, err := Encode(p)
	require.NoError(t, err)

	var probe struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &probe))
	assert.Equal(t, CurrentVersion, probe.Version)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCloneDoesNotShareRoutings(t *testing.T) {
	p := Defaults()
	c := p.Clone()
	c.ModRouting[0].Amount = 1
	assert.Zero(t, p.ModRouting[0].Amount)
}
