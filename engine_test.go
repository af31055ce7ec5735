package websynth

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/websynth-go/internal/analysis"
	"github.com/cbegin/websynth-go/internal/keymap"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	require.NoError(t, e.Init())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func render(e *Engine, frames int) []float32 {
	buf := make([]float32, frames*2)
	e.Process(buf)
	return buf
}

func freqOf(t *testing.T, code string, octave int) float64 {
	t.Helper()
	f, ok := keymap.Frequency(code, octave)
	require.True(t, ok, code)
	return f
}

type fakeOutput struct {
	played, stopped int
}

func (o *fakeOutput) Play()       { o.played++ }
func (o *fakeOutput) Stop() error { o.stopped++; return nil }

func TestNewEngineRejectsBadSampleRate(t *testing.T) {
	_, err := NewEngine(WithSampleRate(0))
	assert.Error(t, err)
}

func TestCallsBeforeInitAreNoOps(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	assert.NoError(t, e.NoteOn("KeyA"))
	e.NoteOff("KeyA")
	e.NoteOnFrequency(440)
	e.StopAll()
	e.SetPitchBend(0.5)
	e.StartTransport()
	e.ArpClearNotes()

	assert.False(t, e.Initialized())
	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.HeldNotes())
	assert.False(t, e.IsPlaying())
	assert.False(t, e.ToggleTransport())
	assert.Equal(t, "", e.Session())
	assert.Equal(t, analysis.MeterFloorDB, e.MeterLevel())
	assert.ErrorIs(t, e.AttachOutput(&fakeOutput{}), ErrNotInitialized)

	fft := e.FFTData()
	for _, v := range fft {
		require.Equal(t, float32(analysis.SpectrumFloorDB), v)
	}

	buf := []float32{1, 1, 1, 1}
	e.Process(buf)
	assert.Equal(t, []float32{0, 0, 0, 0}, buf)
}

func TestParamsSetBeforeInitApplyOnInit(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.Set("master.mono", true))
	require.NoError(t, e.Set("tempo.bpm", 90))
	require.NoError(t, e.Init())
	defer e.Close()

	assert.True(t, e.monoActive)
	assert.Equal(t, 90.0, e.transport.BPM())
}

func TestUnknownKeyCode(t *testing.T) {
	e := newTestEngine(t)
	err := e.NoteOn("KeyZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKey)

	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "KeyZ", pe.Value)
}

func TestCustomKeyMap(t *testing.T) {
	var octaves []int
	e := newTestEngine(t, WithKeyMap(func(code string, octave int) (float64, bool) {
		octaves = append(octaves, octave)
		return 220, code == "Pad1"
	}))

	require.NoError(t, e.NoteOn("Pad1"))
	assert.Equal(t, 1, e.HeldNotes())
	assert.ErrorIs(t, e.NoteOn("KeyA"), ErrUnknownKey)
	assert.Equal(t, []int{3, 3}, octaves)

	e.NoteOff("Pad1")
	assert.Zero(t, e.HeldNotes())
}

func TestActiveNotesTrackHeldUpToFour(t *testing.T) {
	e := newTestEngine(t)
	codes := []string{"KeyA", "KeyS", "KeyD", "KeyF", "KeyG"}
	for i, code := range codes {
		require.NoError(t, e.NoteOn(code))
		render(e, 64)
		assert.Equal(t, min(i+1, 4), e.ActiveNotes(), "after %s", code)
	}
	assert.Equal(t, 5, e.HeldNotes())

	for _, code := range codes {
		e.NoteOff(code)
	}
	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.HeldNotes())
}

func TestRepeatedNoteOnIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyA"))
	assert.Equal(t, 1, e.ActiveNotes())
	e.NoteOff("KeyA")
	assert.Zero(t, e.ActiveNotes())
}

func TestNoteOffUsesFrequencyCachedAtNoteOn(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	e.SetOctave(5)
	e.NoteOff("KeyA")
	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.HeldNotes())
}

func TestNoteOffForUntrackedNoteIsIgnored(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	e.NoteOff("KeyS")
	e.NoteOffFrequency(12345)
	assert.Equal(t, 1, e.ActiveNotes())
}

func TestMonoLastNotePriority(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Set("master.mono", true))

	a, d := freqOf(t, "KeyA", 3), freqOf(t, "KeyD", 3)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyD"))
	assert.Equal(t, 1, e.ActiveNotes())
	assert.Equal(t, d, e.mono.Sounding())

	e.NoteOff("KeyD")
	assert.Equal(t, 1, e.ActiveNotes())
	assert.Equal(t, a, e.mono.Sounding())

	e.NoteOff("KeyA")
	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.mono.Sounding())
}

func TestSwitchToMonoWithChordReleasesEverything(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyD"))
	require.NoError(t, e.Set("master.mono", true))

	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.HeldNotes())
}

func TestNoteStartedInPolyReleasesAfterMonoSwitch(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.Set("master.mono", true))
	assert.Equal(t, 1, e.ActiveNotes())

	e.NoteOff("KeyA")
	assert.Zero(t, e.ActiveNotes())
}

func TestStopAllIsPanicButton(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyS"))
	e.StopAll()
	assert.Zero(t, e.ActiveNotes())
	assert.Zero(t, e.HeldNotes())

	// Keys released after the panic are forgotten, not re-released.
	e.NoteOff("KeyA")
	assert.Zero(t, e.ActiveNotes())
}

func TestArpeggiatorThroughEngine(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Set("arpeggiator.enabled", true))

	a, d := freqOf(t, "KeyA", 3), freqOf(t, "KeyD", 3)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyD"))

	st := e.ArpState()
	assert.True(t, st.Running)
	assert.Equal(t, []float64{a, d}, st.Held)
	assert.Equal(t, a, st.Current)
	assert.True(t, e.IsPlaying())
	assert.Equal(t, 1, e.ActiveNotes())

	// An eighth at 120 BPM is 12000 frames at 48 kHz.
	render(e, 12000)
	assert.Equal(t, a, e.ArpState().Current)
	render(e, 1)
	assert.Equal(t, d, e.ArpState().Current)
	assert.Equal(t, 1, e.ActiveNotes())

	render(e, 12000)
	assert.Equal(t, a, e.ArpState().Current)

	e.NoteOff("KeyA")
	e.NoteOff("KeyD")
	st = e.ArpState()
	assert.False(t, st.Running)
	assert.False(t, e.IsPlaying())
	assert.Zero(t, e.ActiveNotes())
}

func TestDisablingArpeggiatorForgetsNotes(t *testing.T) {
	e := newTestEngine(t)
	e.ArpSetEnabled(true)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyG"))
	require.True(t, e.ArpState().Running)

	e.ArpSetEnabled(false)
	assert.False(t, e.ArpState().Running)
	assert.Empty(t, e.ArpState().Held)
	assert.Zero(t, e.HeldNotes())
	assert.Zero(t, e.ActiveNotes())
	assert.False(t, e.IsPlaying())

	// Keys now go to the poly path.
	require.NoError(t, e.NoteOn("KeyA"))
	assert.Equal(t, 1, e.ActiveNotes())
}

func TestEnablingArpeggiatorReleasesPolyVoices(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyA"))
	require.NoError(t, e.NoteOn("KeyS"))
	e.ArpSetEnabled(true)
	assert.Zero(t, e.ActiveNotes())
	assert.False(t, e.ArpState().Running)
}

func TestManualTransportSharesClockWithArpeggiator(t *testing.T) {
	e := newTestEngine(t)
	e.StartTransport()
	e.ArpSetEnabled(true)
	require.NoError(t, e.NoteOn("KeyA"))
	e.NoteOff("KeyA")

	assert.True(t, e.IsPlaying(), "manual claim keeps the clock running")
	assert.False(t, e.ToggleTransport())
	assert.False(t, e.IsPlaying())
}

func TestTapTempo(t *testing.T) {
	now := time.Unix(0, 0)
	e := newTestEngine(t, WithClock(func() time.Time { return now }))

	assert.Equal(t, 120.0, e.TapTempo())
	now = now.Add(400 * time.Millisecond)
	assert.Equal(t, 150.0, e.TapTempo())
	now = now.Add(400 * time.Millisecond)
	assert.Equal(t, 150.0, e.TapTempo())
	assert.Equal(t, 150.0, e.BPM())
}

func TestPitchBendIsClamped(t *testing.T) {
	e := newTestEngine(t)
	e.SetPitchBend(3)
	assert.Equal(t, 1.0, e.PitchBend())
	e.SetPitchBend(-7)
	assert.Equal(t, -1.0, e.PitchBend())
}

func TestOctaveIsClamped(t *testing.T) {
	e := newTestEngine(t)
	e.SetOctave(9)
	assert.Equal(t, keymap.MaxOctave, e.Octave())
	e.SetOctave(-2)
	assert.Equal(t, keymap.MinOctave, e.Octave())
}

func TestSoundingNoteReachesMeterAndAnalysers(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.NoteOn("KeyH"))
	out := render(e, 24000)

	assert.Greater(t, Peak(out), 0.01)
	assert.Greater(t, e.MeterLevel(), analysis.MeterFloorDB)

	wave := e.WaveformData()
	var energy float64
	for _, v := range wave {
		energy += float64(v * v)
	}
	assert.Greater(t, energy, 0.0)

	fft := e.FFTData()
	var loudest float32 = analysis.SpectrumFloorDB
	for _, v := range fft {
		loudest = max(loudest, v)
	}
	assert.Greater(t, loudest, float32(-60))
}

func TestOutputLifecycle(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.Init())
	first := e.Session()
	require.NotEmpty(t, first)

	out := &fakeOutput{}
	require.NoError(t, e.AttachOutput(out))
	assert.Equal(t, 1, out.played)

	next := &fakeOutput{}
	require.NoError(t, e.AttachOutput(next))
	assert.Equal(t, 1, out.stopped)

	require.NoError(t, e.Close())
	assert.Equal(t, 1, next.stopped)
	assert.False(t, e.Initialized())

	require.NoError(t, e.Init())
	defer e.Close()
	assert.NotEqual(t, first, e.Session())
}
