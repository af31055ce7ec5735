// Package audio streams a SampleSource to a real-time audio backend.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource renders interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

const bytesPerFrame = 8 // two float32 channels

// StreamReader pulls frames from a SampleSource on demand and encodes them as
// the Float32LE stream both backends consume. After Close every Read returns
// io.EOF, which tells the backend player to finish.
type StreamReader struct {
	mu      sync.Mutex
	source  SampleSource
	scratch []float32
	closed  bool
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

// Read fills whole frames only; a trailing partial frame in p is left as is.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, io.EOF
	}
	n := len(p) / bytesPerFrame * 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]
	r.source.Process(samples)
	putFloat32LE(p, samples)
	return n * 4, nil
}

func (r *StreamReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func putFloat32LE(dst []byte, src []float32) {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}
