// Package mono implements single-voice keyboard behaviour: a stack of held
// notes with last-note priority and optional glide.
package mono

// Target is the voice layer the controller drives.
type Target interface {
	// AttackNote starts base. glideFrom > 0 asks for a pitch glide from that frequency.
	AttackNote(base, glideFrom float64)
	ReleaseNote(base float64)
	AttackShared()
	ReleaseShared()
}

// Controller keeps the held-note stack. The top of the stack is the sounding note.
type Controller struct {
	target   Target
	stack    []float64
	sounding float64
	glide    bool
}

func New(target Target) *Controller {
	return &Controller{target: target}
}

func (c *Controller) SetGlide(enabled bool) { c.glide = enabled }

// NoteOn pushes f and makes it the sounding note.
func (c *Controller) NoteOn(f float64) {
	first := len(c.stack) == 0
	if !c.Holds(f) {
		c.stack = append(c.stack, f)
	}
	prev := c.sounding
	if !first && prev != 0 {
		c.target.ReleaseNote(prev)
	}
	var from float64
	if c.glide && !first {
		from = prev
	}
	c.target.AttackNote(f, from)
	c.sounding = f
	if first {
		c.target.AttackShared()
	}
}

// NoteOff removes f wherever it sits in the stack. Only releasing the
// sounding note changes what is heard.
func (c *Controller) NoteOff(f float64) {
	idx := c.indexOf(f)
	if idx < 0 {
		return
	}
	c.stack = append(c.stack[:idx], c.stack[idx+1:]...)
	if f != c.sounding {
		return
	}
	c.target.ReleaseNote(f)
	if len(c.stack) == 0 {
		c.sounding = 0
		c.target.ReleaseShared()
		return
	}
	top := c.stack[len(c.stack)-1]
	var from float64
	if c.glide {
		from = f
	}
	c.target.AttackNote(top, from)
	c.sounding = top
}

// Clear forgets the stack without touching the voices.
func (c *Controller) Clear() {
	c.stack = c.stack[:0]
	c.sounding = 0
}

// Sounding returns the current note, or 0 when silent.
func (c *Controller) Sounding() float64 { return c.sounding }

// Held returns a copy of the stack, bottom first.
func (c *Controller) Held() []float64 {
	return append([]float64(nil), c.stack...)
}

// Holds reports whether f is on the stack.
func (c *Controller) Holds(f float64) bool { return c.indexOf(f) >= 0 }

func (c *Controller) indexOf(f float64) int {
	for i, v := range c.stack {
		if v == f {
			return i
		}
	}
	return -1
}
