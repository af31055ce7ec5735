package arp

import (
	"math/rand/v2"
	"slices"

	"github.com/cbegin/websynth-go/internal/clock"
	"github.com/cbegin/websynth-go/internal/transport"
)

// Consumer is the transport claim held while the arpeggiator runs.
const Consumer = "arpeggiator"

// Player sounds arpeggio notes. Calls made from a tick run inside the
// timeline step for that tick's frame.
type Player interface {
	PlayArpNote(freq float64)
	StopArpNote(freq float64)
	// SetArpeggiating tells the voice path to defer shared-envelope
	// releases while the arpeggiator drives playback.
	SetArpeggiating(active bool)
	StopAll()
}

// State is the arpeggiator's complete mutable state. It is owned by one
// Scheduler and only touched from the engine's control context.
type State struct {
	Enabled bool
	Pattern Pattern
	Rate    transport.Rate
	Octaves int

	Held       []float64 // ascending, unique
	Index      int
	Running    bool
	Current    float64
	HasCurrent bool
}

func DefaultState() State {
	return State{Pattern: Up, Rate: transport.Eighth, Octaves: 1}
}

type Scheduler struct {
	state     State
	player    Player
	transport *transport.Transport
	loop      *clock.Loop
	rng       *rand.Rand
}

func New(tr *transport.Transport, player Player, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Scheduler{
		state:     DefaultState(),
		player:    player,
		transport: tr,
		rng:       rng,
	}
}

// State returns a copy of the current state.
func (s *Scheduler) State() State {
	st := s.state
	st.Held = slices.Clone(s.state.Held)
	return st
}

func (s *Scheduler) Enabled() bool { return s.state.Enabled }

func (s *Scheduler) Running() bool { return s.state.Running }

func (s *Scheduler) HeldCount() int { return len(s.state.Held) }

// AddNote adds a held note and starts the arpeggio on the first one.
func (s *Scheduler) AddNote(freq float64) {
	i, found := slices.BinarySearch(s.state.Held, freq)
	if !found {
		s.state.Held = slices.Insert(s.state.Held, i, freq)
	}
	if s.state.Enabled && len(s.state.Held) == 1 && !s.state.Running {
		s.start()
	}
}

// RemoveNote drops a held note and stops once none remain.
func (s *Scheduler) RemoveNote(freq float64) {
	if i, found := slices.BinarySearch(s.state.Held, freq); found {
		s.state.Held = slices.Delete(s.state.Held, i, i+1)
	}
	if len(s.state.Held) == 0 {
		s.stop()
	}
}

func (s *Scheduler) ClearNotes() {
	s.state.Held = nil
	s.stop()
}

// SetEnabled starts immediately when notes are already held. Disabling
// silences the sounding note and releases the transport.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.state.Enabled = enabled
	if !enabled {
		s.stop()
		return
	}
	if len(s.state.Held) > 0 && !s.state.Running {
		s.start()
	}
}

func (s *Scheduler) SetPattern(p Pattern) {
	s.state.Pattern = p
	s.state.Index = 0
}

// SetRate changes the step length. A running loop keeps its pending tick and
// uses the new length from there on.
func (s *Scheduler) SetRate(r transport.Rate) {
	s.state.Rate = r
	if s.state.Running && s.loop != nil {
		s.loop.SetInterval(s.intervalFor(r))
	}
}

func (s *Scheduler) SetOctaves(n int) { s.state.Octaves = ClampOctaves(n) }

// Close stops playback and releases the loop.
func (s *Scheduler) Close() { s.stop() }

func (s *Scheduler) intervalFor(r transport.Rate) func() int64 {
	symbol := r.Symbol()
	return func() int64 { return s.transport.Frames(symbol) }
}

func (s *Scheduler) sequence() []float64 {
	return Sequence(s.state.Held, s.state.Octaves, s.state.Pattern, s.rng)
}

func (s *Scheduler) start() {
	if s.state.Running {
		return
	}
	s.state.Running = true
	s.transport.RequestStart(Consumer)
	s.player.SetArpeggiating(true)
	s.state.Index = 0

	tl := s.transport.Timeline()
	interval := s.intervalFor(s.state.Rate)
	s.loop = tl.NewLoop(interval, s.tick)
	s.loop.Start(tl.Now() + interval())

	if seq := s.sequence(); len(seq) > 0 {
		s.state.Current, s.state.HasCurrent = seq[0], true
		s.player.PlayArpNote(seq[0])
		s.state.Index = 1
	}
}

func (s *Scheduler) stop() {
	if !s.state.Running {
		return
	}
	s.state.Running = false
	if s.loop != nil {
		s.loop.Stop()
		s.loop.Dispose()
		s.loop = nil
	}
	s.stopCurrent()
	s.player.SetArpeggiating(false)
	s.transport.Release(Consumer)
	s.player.StopAll()
}

func (s *Scheduler) stopCurrent() {
	if s.state.HasCurrent {
		s.player.StopArpNote(s.state.Current)
		s.state.HasCurrent = false
	}
}

func (s *Scheduler) tick(int64) {
	seq := s.sequence()
	if len(seq) == 0 {
		return
	}
	s.stopCurrent()
	freq := seq[s.state.Index%len(seq)]
	s.state.Current, s.state.HasCurrent = freq, true
	s.player.PlayArpNote(freq)
	s.state.Index = (s.state.Index + 1) % len(seq)
}
