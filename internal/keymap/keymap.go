// Package keymap maps computer-keyboard key codes to note frequencies.
package keymap

import "math"

const (
	MinOctave     = 0
	MaxOctave     = 5
	DefaultOctave = 3
)

// Key is one playable key. Semitone counts from C of the selected octave and
// may exceed 11 for keys that reach into the next octave.
type Key struct {
	Code     string
	Note     string
	Semitone int
	Black    bool
}

// Keys lists the playable keys in keyboard order.
var Keys = []Key{
	{"KeyA", "C", 0, false},
	{"KeyW", "C#", 1, true},
	{"KeyS", "D", 2, false},
	{"KeyE", "D#", 3, true},
	{"KeyD", "E", 4, false},
	{"KeyF", "F", 5, false},
	{"KeyT", "F#", 6, true},
	{"KeyG", "G", 7, false},
	{"KeyY", "G#", 8, true},
	{"KeyH", "A", 9, false},
	{"KeyU", "A#", 10, true},
	{"KeyJ", "B", 11, false},
	{"KeyK", "C", 12, false},
	{"KeyO", "C#", 13, true},
	{"KeyL", "D", 14, false},
}

var byCode = func() map[string]Key {
	m := make(map[string]Key, len(Keys))
	for _, k := range Keys {
		m[k.Code] = k
	}
	return m
}()

func ClampOctave(n int) int {
	return max(MinOctave, min(MaxOctave, n))
}

// Lookup returns the key for code.
func Lookup(code string) (Key, bool) {
	k, ok := byCode[code]
	return k, ok
}

// Frequency returns the pitch of code in octave, rounded to 0.01 Hz. The
// octave is clamped to the playable range.
func Frequency(code string, octave int) (float64, bool) {
	k, ok := byCode[code]
	if !ok {
		return 0, false
	}
	return NoteFrequency(ClampOctave(octave), k.Semitone), true
}

// NoteFrequency returns the equal-tempered frequency (A4 = 440 Hz) of the
// semitone above C in octave, rounded to 0.01 Hz.
func NoteFrequency(octave, semitone int) float64 {
	midi := 12*(octave+1) + semitone
	hz := 440 * math.Pow(2, float64(midi-69)/12)
	return math.Round(hz*100) / 100
}
