// Package analysis implements the output taps read by visualizers: a level
// meter, a waveform sampler and a spectrum sampler.
package analysis

import "math"

const (
	WaveformSize = 256
	SpectrumSize = 256
	// MeterFloorDB is reported for silence.
	MeterFloorDB = -60.0
	// SpectrumFloorDB is the lowest magnitude a spectrum bin reports.
	SpectrumFloorDB = -100.0

	ringLen        = 2 * SpectrumSize
	meterTimeConst = 0.1 // seconds
)

// Tap receives every output frame. It is not safe for concurrent use; the
// engine serializes access.
type Tap struct {
	ring     [ringLen]float32 // mono ring buffer
	writePos int
	ms       float64 // smoothed mean square
	alpha    float64
	spectrum *Spectrum
}

func NewTap(sampleRate int) (*Tap, error) {
	spec, err := NewSpectrum(2 * SpectrumSize)
	if err != nil {
		return nil, err
	}
	return &Tap{
		alpha:    math.Exp(-1 / (meterTimeConst * float64(sampleRate))),
		spectrum: spec,
	}, nil
}

// Write records one stereo frame.
func (t *Tap) Write(l, r float32) {
	mono := (l + r) * 0.5
	t.ring[t.writePos] = mono
	t.writePos = (t.writePos + 1) % ringLen
	x := float64(mono)
	t.ms = t.alpha*t.ms + (1-t.alpha)*x*x
}

// LevelDB returns the smoothed RMS level in dB, floored at MeterFloorDB.
func (t *Tap) LevelDB() float64 {
	if t.ms <= 0 {
		return MeterFloorDB
	}
	db := 10 * math.Log10(t.ms)
	if db < MeterFloorDB {
		return MeterFloorDB
	}
	return db
}

// Waveform returns the most recent WaveformSize samples, oldest first.
func (t *Tap) Waveform() [WaveformSize]float32 {
	var out [WaveformSize]float32
	t.latest(out[:])
	return out
}

// Spectrum returns SpectrumSize magnitude bins in dB of the latest window.
func (t *Tap) Spectrum() [SpectrumSize]float32 {
	buf := make([]float32, ringLen)
	t.latest(buf)
	return t.spectrum.Analyze(buf)
}

func (t *Tap) latest(dst []float32) {
	n := len(dst)
	start := (t.writePos - n + ringLen*2) % ringLen
	for i := 0; i < n; i++ {
		dst[i] = t.ring[(start+i)%ringLen]
	}
}

func (t *Tap) Reset() {
	t.ring = [ringLen]float32{}
	t.writePos = 0
	t.ms = 0
}
