package voice

import "math"

// Waveform selects the oscillator shape of the poly voices.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

// ParseWaveform maps a waveform name to its constant.
func ParseWaveform(name string) (Waveform, bool) {
	switch name {
	case "sine":
		return Sine, true
	case "square":
		return Square, true
	case "triangle":
		return Triangle, true
	case "sawtooth":
		return Sawtooth, true
	}
	return Sine, false
}

func (w Waveform) String() string {
	switch w {
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	}
	return "sine"
}

// sample evaluates the waveform at phase in [0, 1).
func sample(phase float64, w Waveform) float64 {
	switch w {
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		return 2*math.Abs(2*phase-1) - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
