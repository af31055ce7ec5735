// Package envelope implements the ADSR generator used by voices, the shared
// sub/noise sources and the filter sweep.
package envelope

type State int

const (
	Attack State = iota
	Decay
	Sustain
	Release
	Off
)

const minTime = 0.001

// ADSR is a linear attack/decay/release envelope with output in [0, 1].
// Times are in seconds.
type ADSR struct {
	attack  float64
	decay   float64
	sustain float64
	release float64

	sampleRate  float64
	level       float64
	state       State
	releaseStep float64
}

func New(sampleRate int, attack, decay, sustain, release float64) *ADSR {
	e := &ADSR{sampleRate: float64(sampleRate), state: Off}
	e.SetAttack(attack)
	e.SetDecay(decay)
	e.SetSustain(sustain)
	e.SetRelease(release)
	return e
}

func (e *ADSR) SetAttack(s float64) { e.attack = maxf(s, minTime) }
func (e *ADSR) SetDecay(s float64) { e.decay = maxf(s, minTime) }
func (e *ADSR) SetRelease(s float64) { e.release = maxf(s, minTime) }

func (e *ADSR) SetSustain(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.sustain = level
}

// Trigger starts the attack from the current level, so retriggering a
// sounding envelope does not click.
func (e *ADSR) Trigger() {
	e.state = Attack
}

// Release starts the release segment from the current level.
func (e *ADSR) Release() {
	if e.state == Off || e.state == Release {
		return
	}
	e.state = Release
	e.releaseStep = e.level / (e.release * e.sampleRate)
	if e.releaseStep <= 0 {
		e.releaseStep = 1
	}
}

// Next advances one sample.
func (e *ADSR) Next() float64 {
	switch e.state {
	case Attack:
		e.level += 1.0 / (e.attack * e.sampleRate)
		if e.level >= 1 {
			e.level = 1
			e.state = Decay
		}
	case Decay:
		e.level -= (1 - e.sustain) / (e.decay * e.sampleRate)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.state = Sustain
		}
	case Sustain:
		e.level = e.sustain
	case Release:
		e.level -= e.releaseStep
		if e.level <= 0.0001 {
			e.level = 0
			e.state = Off
		}
	case Off:
		e.level = 0
	}
	return e.level
}

func (e *ADSR) Level() float64 { return e.level }
func (e *ADSR) State() State { return e.state }

// Gated reports whether the envelope is in attack, decay or sustain.
func (e *ADSR) Gated() bool { return e.state < Release }

// Active reports whether the envelope produces any output.
func (e *ADSR) Active() bool { return e.state != Off }

// Reset silences the envelope immediately.
func (e *ADSR) Reset() {
	e.level = 0
	e.state = Off
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
