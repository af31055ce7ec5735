package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrum computes windowed magnitude spectra with a reusable real FFT plan.
type Spectrum struct {
	size    int
	forward func(dst []complex128, src []float64)
	window  []float64
	in      []float64
	out     []complex128
}

func NewSpectrum(size int) (*Spectrum, error) {
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return &Spectrum{
		size:    size,
		forward: func(dst []complex128, src []float64) { plan.Forward(dst, src) },
		window:  window,
		in:      make([]float64, size),
		out:     make([]complex128, size/2+1),
	}, nil
}

// Analyze returns the first SpectrumSize bins of samples in dB.
func (s *Spectrum) Analyze(samples []float32) [SpectrumSize]float32 {
	for i := range s.in {
		var v float64
		if i < len(samples) {
			v = float64(samples[i])
		}
		s.in[i] = v * s.window[i]
	}
	s.forward(s.out, s.in)

	var bins [SpectrumSize]float32
	norm := float64(s.size) / 4 // Hann coherent gain is 0.5
	for k := 0; k < SpectrumSize && k < len(s.out); k++ {
		mag := cmplx.Abs(s.out[k]) / norm
		db := SpectrumFloorDB
		if mag > 0 {
			db = math.Max(20*math.Log10(mag), SpectrumFloorDB)
		}
		bins[k] = float32(db)
	}
	return bins
}
