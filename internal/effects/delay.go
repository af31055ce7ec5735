package effects

import "github.com/cbegin/websynth-go/internal/ramp"

// MaxDelaySeconds bounds the delay time.
const MaxDelaySeconds = 1.0

// Delay is a stereo feedback delay whose time can ramp while running.
type Delay struct {
	rates
	bufL, bufR []float32
	pos        int
	time       ramp.Param // seconds
	feedback   ramp.Param
	wet        ramp.Param
}

func NewDelay(sampleRate int, seconds, feedback, wet float64) *Delay {
	size := int(MaxDelaySeconds*float64(sampleRate)) + 2
	return &Delay{
		rates:    newRates(sampleRate),
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		time:     ramp.New(clamp(seconds, 0, MaxDelaySeconds)),
		feedback: ramp.New(clamp(feedback, 0, 0.95)),
		wet:      ramp.New(clamp(wet, 0, 1)),
	}
}

func (d *Delay) SetTime(s float64) { d.time.SetTarget(clamp(s, 0, MaxDelaySeconds), d.slow) }
func (d *Delay) SetFeedback(f float64) { d.feedback.SetTarget(clamp(f, 0, 0.95), d.slow) }
func (d *Delay) SetWet(w float64) { d.wet.SetTarget(clamp(w, 0, 1), d.slow) }

func (d *Delay) Process(l, r float32) (float32, float32) {
	delay := d.time.Next() * d.sampleRate
	fb := float32(d.feedback.Next())
	w := d.wet.Next()

	delL := d.read(d.bufL, delay)
	delR := d.read(d.bufR, delay)
	d.bufL[d.pos] = l + delL*fb
	d.bufR[d.pos] = r + delR*fb
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return mix(l, delL, w), mix(r, delR, w)
}

func (d *Delay) read(buf []float32, delay float64) float32 {
	if delay < 1 {
		delay = 1
	}
	size := float64(len(buf))
	readPos := float64(d.pos) - delay
	for readPos < 0 {
		readPos += size
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	idx2 := idx + 1
	if idx2 >= len(buf) {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
