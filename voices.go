package websynth

import "github.com/cbegin/websynth-go/internal/logger"

// noteOn routes a held frequency to the arpeggiator, the mono controller or
// the poly voices. Callers hold e.mu.
func (e *Engine) noteOn(f float64) {
	if _, ok := e.held[f]; ok {
		return
	}
	e.held[f] = struct{}{}
	switch {
	case e.params.Arpeggiator.Enabled:
		e.arp.AddNote(f)
	case e.monoActive:
		e.mono.NoteOn(f)
	default:
		e.polyOn(f)
	}
}

func (e *Engine) noteOff(f float64) {
	if _, ok := e.held[f]; !ok {
		return
	}
	delete(e.held, f)
	switch {
	case e.params.Arpeggiator.Enabled:
		e.arp.RemoveNote(f)
	case e.monoActive && e.mono.Holds(f):
		e.mono.NoteOff(f)
	default:
		// Also catches a note that started before a switch to mono.
		e.polyOff(f)
	}
}

func (e *Engine) polyOn(f float64) {
	key := e.pool.Attack(f, 0, 0)
	e.keys[f] = key
	e.current = f
	frames := 0
	if e.params.Glide.Enabled && len(e.keys) > 1 {
		frames = e.glideFrames()
	}
	e.sub.SetFrequency(e.subFrequency(f), frames)
	if len(e.keys) == 1 {
		e.attackShared()
	}
}

func (e *Engine) polyOff(f float64) {
	key, ok := e.keys[f]
	if !ok {
		return
	}
	delete(e.keys, f)
	e.pool.Release(key)
	if len(e.keys) == 0 && !e.arpeggiating {
		e.releaseShared()
	}
}

// attackShared starts the envelopes of the monophonic sources.
func (e *Engine) attackShared() {
	e.sub.Envelope().Trigger()
	e.noise.Envelope().Trigger()
	e.mod.TriggerEnvelope()
}

func (e *Engine) releaseShared() {
	e.sub.Envelope().Release()
	e.noise.Envelope().Release()
	e.mod.ReleaseEnvelope()
}

func (e *Engine) stopAllVoices() {
	e.pool.ReleaseAll()
	clear(e.keys)
	clear(e.held)
	clear(e.codes)
	e.mono.Clear()
	if !e.arpeggiating {
		e.releaseShared()
	}
}

// setMono switches the keyboard mode. Entering mono with more than one voice
// held releases everything so no note is left stuck.
func (e *Engine) setMono(enabled bool) {
	if enabled == e.monoActive {
		return
	}
	e.monoActive = enabled
	if enabled {
		if e.pool.Gated() > 1 {
			logger.Debug("releasing poly voices for mono mode", logger.Fields{
				"session": e.session,
				"voices":  e.pool.Gated(),
			})
			e.stopAllVoices()
		}
		return
	}
	e.mono.Clear()
}

// monoTarget adapts the engine to the mono controller.
type monoTarget struct{ e *Engine }

func (t monoTarget) AttackNote(base, glideFrom float64) {
	e := t.e
	frames := 0
	if glideFrom > 0 {
		frames = e.glideFrames()
	}
	e.keys[base] = e.pool.Attack(base, glideFrom, frames)
	e.current = base
	e.sub.SetFrequency(e.subFrequency(base), frames)
}

func (t monoTarget) ReleaseNote(base float64) {
	if key, ok := t.e.keys[base]; ok {
		delete(t.e.keys, base)
		t.e.pool.Release(key)
	}
}

func (t monoTarget) AttackShared()  { t.e.attackShared() }
func (t monoTarget) ReleaseShared() { t.e.releaseShared() }

// arpPlayer adapts the engine to the arpeggiator. Notes played from a tick
// run inside the timeline step of that tick's frame.
type arpPlayer struct{ e *Engine }

func (p arpPlayer) PlayArpNote(f float64) {
	e := p.e
	e.arpKeys[f] = e.pool.Attack(f, 0, 0)
	e.current = f
	e.sub.SetFrequency(e.subFrequency(f), 0)
	e.attackShared()
}

func (p arpPlayer) StopArpNote(f float64) {
	if key, ok := p.e.arpKeys[f]; ok {
		delete(p.e.arpKeys, f)
		p.e.pool.Release(key)
	}
}

// SetArpeggiating holds the shared envelopes open while the arpeggiator runs.
func (p arpPlayer) SetArpeggiating(active bool) {
	e := p.e
	e.arpeggiating = active
	if !active && len(e.keys) == 0 {
		e.releaseShared()
	}
}

func (p arpPlayer) StopAll() {
	p.e.pool.ReleaseAll()
	clear(p.e.arpKeys)
	clear(p.e.keys)
	p.e.mono.Clear()
	if !p.e.arpeggiating {
		p.e.releaseShared()
	}
}
