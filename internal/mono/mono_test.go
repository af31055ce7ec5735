package mono

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events   []string
	sounding map[float64]bool
}

func newRecorder() *recorder { return &recorder{sounding: map[float64]bool{}} }

func (r *recorder) AttackNote(base, glideFrom float64) {
	r.events = append(r.events, fmt.Sprintf("on %g from %g", base, glideFrom))
	r.sounding[base] = true
}

func (r *recorder) ReleaseNote(base float64) {
	r.events = append(r.events, fmt.Sprintf("off %g", base))
	delete(r.sounding, base)
}

func (r *recorder) AttackShared()  { r.events = append(r.events, "shared on") }
func (r *recorder) ReleaseShared() { r.events = append(r.events, "shared off") }

func TestReleasingTopReturnsToPreviousNote(t *testing.T) {
	r := newRecorder()
	c := New(r)
	c.NoteOn(220)
	c.NoteOn(330)
	c.NoteOff(330)

	assert.Equal(t, 220.0, c.Sounding())
	assert.True(t, r.sounding[220], "A must still sound after releasing B")
	assert.False(t, r.sounding[330])
	assert.NotContains(t, r.events, "shared off")
}

func TestReleasingNonTopIsSilentChange(t *testing.T) {
	r := newRecorder()
	c := New(r)
	c.NoteOn(220)
	c.NoteOn(330)
	before := len(r.events)
	c.NoteOff(220)

	assert.Equal(t, before, len(r.events), "no audible change expected")
	assert.Equal(t, []float64{330}, c.Held())
	assert.Equal(t, 330.0, c.Sounding())
}

func TestSharedEnvelopesOnlyOnFirstAndLast(t *testing.T) {
	r := newRecorder()
	c := New(r)
	c.NoteOn(220)
	c.NoteOn(330)
	c.NoteOn(440)
	c.NoteOff(440)
	c.NoteOff(330)
	c.NoteOff(220)

	count := func(ev string) int {
		n := 0
		for _, e := range r.events {
			if e == ev {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count("shared on"))
	assert.Equal(t, 1, count("shared off"))
	assert.Equal(t, 0.0, c.Sounding())
	assert.Empty(t, r.sounding)
}

func TestGlideSuppliesPreviousFrequency(t *testing.T) {
	r := newRecorder()
	c := New(r)
	c.SetGlide(true)
	c.NoteOn(220)
	c.NoteOn(330)
	c.NoteOff(330)

	require.Equal(t, []string{
		"on 220 from 0",
		"shared on",
		"off 220",
		"on 330 from 220",
		"off 330",
		"on 220 from 330",
	}, r.events)
}

func TestRepeatedNoteIsNotDuplicatedOnStack(t *testing.T) {
	c := New(newRecorder())
	c.NoteOn(220)
	c.NoteOn(220)
	assert.Equal(t, []float64{220}, c.Held())
	c.NoteOff(220)
	assert.Empty(t, c.Held())
}

func TestUntrackedNoteOffIgnored(t *testing.T) {
	r := newRecorder()
	c := New(r)
	c.NoteOn(220)
	before := len(r.events)
	c.NoteOff(999)
	assert.Equal(t, before, len(r.events))
}
