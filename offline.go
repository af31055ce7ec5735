package websynth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// renderBlock is the number of frames pulled per Process call, so scheduled
// commands see the same block boundaries as a live output would.
const renderBlock = 512

// RenderSamples pulls seconds of interleaved stereo from e. The engine must
// be initialized; otherwise the result is silence.
func RenderSamples(e *Engine, seconds float64) []float32 {
	frames := int(float64(e.SampleRate()) * seconds)
	if frames <= 0 {
		return nil
	}
	out := make([]float32, frames*2)
	for off := 0; off < len(out); off += renderBlock * 2 {
		end := min(off+renderBlock*2, len(out))
		e.Process(out[off:end])
	}
	return out
}

// Phrase is a note sequence for offline rendering. Each code is held for
// Hold seconds; with the arpeggiator enabled the codes are held together.
type Phrase struct {
	Codes []string
	Hold  float64
	Tail  float64
}

// RenderPhrase plays p through e and returns the rendered audio. With the
// arpeggiator enabled every code is held for the whole phrase and the
// arpeggiator does the stepping.
func RenderPhrase(e *Engine, p Phrase) ([]float32, error) {
	if !e.Initialized() {
		return nil, fmt.Errorf("render phrase: %w", ErrNotInitialized)
	}
	var out []float32
	if e.ArpState().Enabled {
		for _, code := range p.Codes {
			if err := e.NoteOn(code); err != nil {
				return nil, fmt.Errorf("render phrase: %w", err)
			}
		}
		out = append(out, RenderSamples(e, p.Hold*float64(len(p.Codes)))...)
		for _, code := range p.Codes {
			e.NoteOff(code)
		}
	} else {
		for _, code := range p.Codes {
			if err := e.NoteOn(code); err != nil {
				return nil, fmt.Errorf("render phrase: %w", err)
			}
			out = append(out, RenderSamples(e, p.Hold)...)
			e.NoteOff(code)
		}
	}
	out = append(out, RenderSamples(e, p.Tail)...)
	return out, nil
}

// WriteWAV writes interleaved stereo samples as 16-bit PCM.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
