package websynth

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cbegin/websynth-go/internal/analysis"
	"github.com/cbegin/websynth-go/internal/arp"
	intaudio "github.com/cbegin/websynth-go/internal/audio"
	"github.com/cbegin/websynth-go/internal/clock"
	"github.com/cbegin/websynth-go/internal/effects"
	interrors "github.com/cbegin/websynth-go/internal/errors"
	"github.com/cbegin/websynth-go/internal/freq"
	"github.com/cbegin/websynth-go/internal/keymap"
	"github.com/cbegin/websynth-go/internal/lfo"
	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/modulation"
	"github.com/cbegin/websynth-go/internal/mono"
	"github.com/cbegin/websynth-go/internal/preset"
	"github.com/cbegin/websynth-go/internal/ramp"
	"github.com/cbegin/websynth-go/internal/transport"
	"github.com/cbegin/websynth-go/internal/voice"
)

const DefaultSampleRate = 48000

// KeyMap resolves a key code in an octave to a frequency.
type KeyMap func(code string, octave int) (float64, bool)

type EngineOption func(*engineConfig)

type engineConfig struct {
	sampleRate int
	keyMap     KeyMap
	now        func() time.Time
	rng        *rand.Rand
	params     preset.Params
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		sampleRate: DefaultSampleRate,
		keyMap:     keymap.Frequency,
		now:        time.Now,
		params:     preset.Defaults(),
	}
}

func WithSampleRate(sampleRate int) EngineOption {
	return func(cfg *engineConfig) {
		cfg.sampleRate = sampleRate
	}
}

func WithKeyMap(km KeyMap) EngineOption {
	return func(cfg *engineConfig) {
		cfg.keyMap = km
	}
}

// WithClock sets the wall clock used by tap tempo.
func WithClock(now func() time.Time) EngineOption {
	return func(cfg *engineConfig) {
		cfg.now = now
	}
}

// WithRand sets the source for the random arpeggio pattern.
func WithRand(rng *rand.Rand) EngineOption {
	return func(cfg *engineConfig) {
		cfg.rng = rng
	}
}

// WithParams sets the initial parameter bundle. Values are clamped.
func WithParams(p preset.Params) EngineOption {
	return func(cfg *engineConfig) {
		cfg.params = p
	}
}

// Output is an audio sink pulling samples from the engine.
type Output interface {
	Play()
	Stop() error
}

// Engine is the synth. Every control method and Process serialize on one
// mutex, so the internal packages run single-threaded. Control calls made
// before Init only update the parameter model.
type Engine struct {
	mu         sync.Mutex
	sampleRate int
	keyMap     KeyMap
	now        func() time.Time
	rng        *rand.Rand

	params      preset.Params
	initialized bool
	session     string
	output      Output

	timeline  *clock.Timeline
	transport *transport.Transport
	arp       *arp.Scheduler
	mono      *mono.Controller
	pool      *voice.Pool
	sub       *voice.SubOsc
	noise     *voice.Noise
	mod       *modulation.Engine
	rack      *effects.Rack
	tap       *analysis.Tap

	bend         float64
	current      float64              // base frequency the sub oscillator tracks
	held         map[float64]struct{} // held base frequencies
	keys         map[float64]float64  // base -> voice key for the poly and mono paths
	arpKeys      map[float64]float64  // arp note -> voice key
	codes        map[string]float64   // key code -> frequency cached at note-on
	arpeggiating bool
	monoActive   bool
}

var _ intaudio.SampleSource = (*Engine)(nil)

func NewEngine(opts ...EngineOption) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.keyMap == nil {
		cfg.keyMap = keymap.Frequency
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	e := &Engine{
		sampleRate: cfg.sampleRate,
		keyMap:     cfg.keyMap,
		now:        cfg.now,
		rng:        cfg.rng,
		params:     sanitize(cfg.params),
		held:       map[float64]struct{}{},
		keys:       map[float64]float64{},
		arpKeys:    map[float64]float64{},
		codes:      map[string]float64{},
	}
	return e, nil
}

// Init builds the audio graph from the current parameters and starts a new
// session. Calling Init on a running engine does nothing.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	tap, err := analysis.NewTap(e.sampleRate)
	if err != nil {
		return err
	}
	p := e.params
	sr := e.sampleRate

	e.timeline = clock.New()
	e.transport = transport.New(sr, e.timeline,
		transport.WithNow(e.now),
		transport.WithStateHook(e.onTransport),
	)
	e.transport.SetBPM(p.Tempo.BPM)

	e.pool = voice.NewPool(sr, voiceWaveform(p.Master.Waveform), p.Master.Attack, p.Master.Release)
	e.pool.OnSteal(e.onSteal)
	e.sub = voice.NewSubOsc(sr, p.Oscillator.SubOscLevel, p.Master.Attack, p.Master.Release)
	e.noise = voice.NewNoise(sr, noiseType(p.Oscillator.NoiseType), p.Oscillator.NoiseLevel, p.Master.Attack, p.Master.Release)
	e.mod = modulation.New(sr, modulation.Config{
		BaseCutoff:  p.Effects.Lowpass.Frequency,
		LFORate:     p.LFO.Rate,
		LFODepth:    p.LFO.Depth,
		LFOWaveform: lfoWaveform(p.LFO.Waveform),
		Envelope: modulation.EnvelopeParams{
			Attack:  p.FilterEnvelope.Attack,
			Decay:   p.FilterEnvelope.Decay,
			Sustain: p.FilterEnvelope.Sustain,
			Release: p.FilterEnvelope.Release,
			Amount:  p.FilterEnvelope.Amount,
		},
		Routings: p.ModRouting,
	})
	e.rack = effects.NewRack(sr, rackSettings(p))
	e.tap = tap

	e.mono = mono.New(monoTarget{e})
	e.mono.SetGlide(p.Glide.Enabled)
	e.monoActive = p.Master.Mono

	e.arp = arp.New(e.transport, arpPlayer{e}, e.rng)
	e.arp.SetPattern(p.Arpeggiator.Pattern)
	e.arp.SetRate(p.Arpeggiator.Rate)
	e.arp.SetOctaves(p.Arpeggiator.Octaves)
	e.arp.SetEnabled(p.Arpeggiator.Enabled)

	e.bend = 0
	e.current = 0
	e.session = uuid.NewString()
	e.initialized = true
	logger.Info("engine initialized", logger.Fields{
		"session":     e.session,
		"sample_rate": sr,
		"mono":        p.Master.Mono,
	})
	return nil
}

// Close stops the arpeggiator, releases the transport and detaches the audio
// output. The parameter model is kept for a later Init.
func (e *Engine) Close() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.arp.Close()
	e.transport.ReleaseAll()
	e.pool.ReleaseAll()
	e.clearNotes()
	out := e.output
	e.output = nil
	session := e.session
	e.initialized = false
	e.mu.Unlock()

	// The output pulls from Process, which takes the lock.
	var err error
	if out != nil {
		err = out.Stop()
	}
	logger.Info("engine closed", logger.Fields{"session": session})
	return err
}

// AttachOutput starts out and stops it on Close. A previously attached
// output is stopped.
func (e *Engine) AttachOutput(out Output) error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return interrors.ErrNotInitialized
	}
	prev := e.output
	e.output = out
	e.mu.Unlock()

	var err error
	if prev != nil {
		err = prev.Stop()
	}
	out.Play()
	return err
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// Session returns the current session id, or "" before Init.
func (e *Engine) Session() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Process renders interleaved stereo frames. Scheduled commands fire at
// their exact frame before it is rendered.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		clear(dst)
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		e.timeline.Step()
		dry := float32(e.pool.Render() + e.sub.Render() + e.noise.Render())
		e.rack.Lowpass.Drive(e.mod.Cutoff())
		l, r := e.rack.Process(dry, dry)
		e.tap.Write(l, r)
		dst[i], dst[i+1] = l, r
	}
}

func (e *Engine) onTransport(running bool) {
	logger.Debug("transport state changed", logger.Fields{
		"session": e.session,
		"running": running,
		"bpm":     e.transport.BPM(),
	})
}

func (e *Engine) onSteal(stolen, key float64) {
	logger.Debug("voice stolen", logger.Fields{
		"session": e.session,
		"stolen":  stolen,
		"key":     key,
	})
}

// NoteOn plays the key code in the current octave. Unknown codes return
// ErrUnknownKey.
func (e *Engine) NoteOn(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.keyMap(code, e.params.Master.Octave)
	if !ok {
		return interrors.NewParamError("key", code, interrors.ErrUnknownKey)
	}
	if !e.initialized {
		return nil
	}
	if prev, held := e.codes[code]; held {
		if prev == f {
			return nil
		}
		e.noteOff(prev)
	}
	e.codes[code] = f
	e.noteOn(f)
	return nil
}

// NoteOff releases the frequency cached for code at note-on, so an octave
// change in between still releases the right note.
func (e *Engine) NoteOff(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.codes[code]
	if !ok || !e.initialized {
		return
	}
	delete(e.codes, code)
	e.noteOff(f)
}

func (e *Engine) NoteOnFrequency(f float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized && f > 0 {
		e.noteOn(f)
	}
}

func (e *Engine) NoteOffFrequency(f float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.noteOff(f)
	}
}

// StopAll releases every voice and forgets all held notes.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	e.arp.ClearNotes()
	e.stopAllVoices()
	e.clearNotes()
}

// SetPitchBend bends every sounding voice by v in [-1, 1] times the bend range.
func (e *Engine) SetPitchBend(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bend = max(-1, min(1, v))
	if e.initialized {
		e.applyBend()
	}
}

func (e *Engine) PitchBend() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bend
}

// SetOctave selects the keyboard octave, clamped to 0..5.
func (e *Engine) SetOctave(n int) {
	_ = e.Set("master.octave", n)
}

func (e *Engine) Octave() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Master.Octave
}

func (e *Engine) ArpSetEnabled(enabled bool) {
	_ = e.Set("arpeggiator.enabled", enabled)
}

func (e *Engine) ArpSetPattern(p arp.Pattern) error {
	return e.Set("arpeggiator.pattern", string(p))
}

func (e *Engine) ArpSetRate(r transport.Rate) error {
	return e.Set("arpeggiator.rate", string(r))
}

func (e *Engine) ArpSetOctaves(n int) {
	_ = e.Set("arpeggiator.octaves", n)
}

func (e *Engine) ArpClearNotes() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.arp.ClearNotes()
	}
}

// ArpState returns a snapshot of the arpeggiator.
func (e *Engine) ArpState() arp.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		st := arp.DefaultState()
		st.Enabled = e.params.Arpeggiator.Enabled
		st.Pattern = e.params.Arpeggiator.Pattern
		st.Rate = e.params.Arpeggiator.Rate
		st.Octaves = e.params.Arpeggiator.Octaves
		return st
	}
	return e.arp.State()
}

// SetBPM sets the tempo, clamped to 40..240, and returns the applied value.
func (e *Engine) SetBPM(bpm float64) float64 {
	_ = e.Set("tempo.bpm", bpm)
	return e.BPM()
}

func (e *Engine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Tempo.BPM
}

// TapTempo records a tap and returns the tempo after it.
func (e *Engine) TapTempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return e.params.Tempo.BPM
	}
	if bpm, ok := e.transport.Tap(); ok {
		e.params.Tempo.BPM = bpm
	}
	return e.params.Tempo.BPM
}

func (e *Engine) StartTransport() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.transport.Start()
	}
}

func (e *Engine) StopTransport() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.transport.Stop()
	}
}

// ToggleTransport flips the manual claim and reports whether the clock runs.
func (e *Engine) ToggleTransport() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return false
	}
	return e.transport.Toggle()
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized && e.transport.Running()
}

// MeterLevel returns the smoothed output level in dB.
func (e *Engine) MeterLevel() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return analysis.MeterFloorDB
	}
	return e.tap.LevelDB()
}

func (e *Engine) WaveformData() [analysis.WaveformSize]float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return [analysis.WaveformSize]float32{}
	}
	return e.tap.Waveform()
}

func (e *Engine) FFTData() [analysis.SpectrumSize]float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		var floor [analysis.SpectrumSize]float32
		for i := range floor {
			floor[i] = analysis.SpectrumFloorDB
		}
		return floor
	}
	return e.tap.Spectrum()
}

// ActiveNotes counts voices whose note is held.
func (e *Engine) ActiveNotes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return 0
	}
	return e.pool.Gated()
}

// HeldNotes returns the number of distinct held frequencies.
func (e *Engine) HeldNotes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.held)
}

func (e *Engine) glideFrames() int {
	return ramp.Frames(time.Duration(e.params.Glide.Time*float64(time.Second)), e.sampleRate)
}

func (e *Engine) defaultFrames() int {
	return ramp.Frames(ramp.Default, e.sampleRate)
}

func (e *Engine) bendRatio() float64 {
	return freq.BendRatio(e.bend, e.params.PitchBendRange)
}

func (e *Engine) subFrequency(base float64) float64 {
	return freq.Sub(base*e.bendRatio(), e.params.Oscillator.SubOscOctave)
}

func (e *Engine) applyBend() {
	e.pool.SetBend(e.bendRatio())
	if e.current > 0 {
		e.sub.SetFrequency(e.subFrequency(e.current), ramp.Frames(ramp.Fast, e.sampleRate))
	}
}

func (e *Engine) clearNotes() {
	clear(e.held)
	clear(e.keys)
	clear(e.arpKeys)
	clear(e.codes)
	e.mono.Clear()
}

func voiceWaveform(name string) voice.Waveform {
	w, _ := voice.ParseWaveform(name)
	return w
}

func lfoWaveform(name string) lfo.Waveform {
	w, _ := lfo.ParseWaveform(name)
	return w
}

func noiseType(name string) voice.NoiseType {
	n, _ := voice.ParseNoiseType(name)
	return n
}

func rackSettings(p preset.Params) effects.Settings {
	return effects.Settings{
		LowpassFreq:      p.Effects.Lowpass.Frequency,
		LowpassQ:         p.Effects.Lowpass.Q,
		HighpassFreq:     p.Effects.Highpass.Frequency,
		HighpassQ:        p.Effects.Highpass.Q,
		DistortionAmount: p.Effects.Distortion.Amount,
		DistortionWet:    p.Effects.Distortion.Wet,
		ChorusRate:       p.Chorus.Rate,
		ChorusDepth:      p.Chorus.Depth,
		ChorusWet:        p.Chorus.Wet,
		PhaserRate:       p.Phaser.Rate,
		PhaserDepth:      p.Phaser.Depth,
		PhaserWet:        p.Phaser.Wet,
		DelayTime:        p.Effects.Delay.Time,
		DelayFeedback:    p.Effects.Delay.Feedback,
		DelayWet:         p.Effects.Delay.Wet,
		ReverbDecay:      p.Effects.Reverb.Decay,
		ReverbWet:        p.Effects.Reverb.Wet,
		MasterDB:         p.Master.Volume,
	}
}
