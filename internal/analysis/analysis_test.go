package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sr = 48000

func TestMeterFloorOnSilence(t *testing.T) {
	tap, err := NewTap(sr)
	require.NoError(t, err)
	assert.Equal(t, MeterFloorDB, tap.LevelDB())
	for i := 0; i < 1000; i++ {
		tap.Write(0, 0)
	}
	assert.Equal(t, MeterFloorDB, tap.LevelDB())
}

func TestMeterTracksFullScaleSine(t *testing.T) {
	tap, err := NewTap(sr)
	require.NoError(t, err)
	for i := 0; i < sr; i++ {
		v := float32(math.Sin(2 * math.Pi * 1000 * float64(i) / sr))
		tap.Write(v, v)
	}
	// RMS of a unit sine is -3 dB.
	assert.InDelta(t, -3.01, tap.LevelDB(), 0.5)
}

func TestWaveformReturnsLatestSamplesInOrder(t *testing.T) {
	tap, err := NewTap(sr)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		v := float32(i)
		tap.Write(v, v)
	}
	wave := tap.Waveform()
	assert.Equal(t, float32(1000-WaveformSize), wave[0])
	assert.Equal(t, float32(999), wave[WaveformSize-1])
}

func TestSpectrumPeaksAtToneBin(t *testing.T) {
	tap, err := NewTap(sr)
	require.NoError(t, err)
	const bin = 20
	hz := float64(bin) * sr / (2 * SpectrumSize)
	for i := 0; i < 4*SpectrumSize; i++ {
		v := float32(math.Sin(2 * math.Pi * hz * float64(i) / sr))
		tap.Write(v, v)
	}
	spec := tap.Spectrum()
	peak := 0
	for k := range spec {
		if spec[k] > spec[peak] {
			peak = k
		}
	}
	assert.Equal(t, bin, peak)
	assert.InDelta(t, 0, spec[bin], 1.5, "unit sine should read near 0 dB")
	assert.Less(t, spec[bin+40], spec[bin]-40)
}
