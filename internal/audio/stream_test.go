package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interrors "github.com/cbegin/websynth-go/internal/errors"
)

type rampSource struct {
	calls atomic.Int64
	next  float32
}

func (s *rampSource) Process(dst []float32) {
	s.calls.Add(1)
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
	}
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)

	p := make([]byte, 8*3+5) // trailing partial frame is left untouched
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		assert.Equal(t, float32(i)*0.25, got)
	}
}

func TestStreamReaderShortBufferReadsNothing(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 7))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, src.calls.Load())
}

func TestStreamReaderEOFAfterClose(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	require.NoError(t, r.Close())
	_, err := r.Read(make([]byte, 64))
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("alsa", 48000, &rampSource{}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, interrors.ErrBackendUnavailable)

	var be *interrors.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "alsa", be.Backend)
	assert.Equal(t, "open", be.Op)
}

func TestDiscardPullsUntilStopped(t *testing.T) {
	src := &rampSource{}
	out, err := Open(BackendNone, 48000, src, 2*time.Millisecond)
	require.NoError(t, err)

	out.Play()
	assert.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, out.Stop())

	after := src.calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load())
	assert.NoError(t, out.Stop())
}

func TestDeviceIsOpenedOnce(t *testing.T) {
	opens := 0
	open := func() error { opens++; return nil }

	require.NoError(t, acquire("fake", 44100, open))
	require.NoError(t, acquire("fake", 44100, open))
	assert.Equal(t, 1, opens)

	assert.ErrorContains(t, acquire("fake", 48000, open), "44100 Hz")
	assert.ErrorContains(t, acquire(BackendOto, 44100, open), "already opened by fake")
	assert.Equal(t, 1, opens)
}
