package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

const (
	chorusDelayMs    = 3.5
	chorusMaxDepthMs = 3.5
)

// Chorus is a stereo modulated delay. The right channel LFO runs half a
// cycle behind the left for width.
type Chorus struct {
	rates
	bufL, bufR []float32
	pos        int
	size       int
	phase      float64
	rate       ramp.Param // Hz
	depth      ramp.Param // 0..1 of chorusMaxDepthMs
	wet        ramp.Param
	baseDelay  float64 // samples
	maxDepth   float64 // samples
}

func NewChorus(sampleRate int, rateHz, depth, wet float64) *Chorus {
	base := chorusDelayMs * float64(sampleRate) / 1000
	maxDepth := chorusMaxDepthMs * float64(sampleRate) / 1000
	size := int(base+maxDepth) + 4
	return &Chorus{
		rates:     newRates(sampleRate),
		bufL:      make([]float32, size),
		bufR:      make([]float32, size),
		size:      size,
		rate:      ramp.New(rateHz),
		depth:     ramp.New(clamp(depth, 0, 1)),
		wet:       ramp.New(clamp(wet, 0, 1)),
		baseDelay: base,
		maxDepth:  maxDepth,
	}
}

func (c *Chorus) SetRate(hz float64) { c.rate.SetTarget(hz, c.slow) }
func (c *Chorus) SetDepth(d float64) { c.depth.SetTarget(clamp(d, 0, 1), c.slow) }
func (c *Chorus) SetWet(w float64) { c.wet.SetTarget(clamp(w, 0, 1), c.slow) }

func (c *Chorus) Process(l, r float32) (float32, float32) {
	rate := c.rate.Next()
	depth := c.depth.Next() * c.maxDepth
	w := c.wet.Next()

	c.bufL[c.pos] = l
	c.bufR[c.pos] = r

	modL := math.Sin(2*math.Pi*c.phase) * depth
	modR := math.Sin(2*math.Pi*c.phase+math.Pi) * depth
	delL := c.read(c.bufL, c.baseDelay+modL)
	delR := c.read(c.bufR, c.baseDelay+modR)

	c.phase += rate / c.sampleRate
	for c.phase >= 1 {
		c.phase -= 1
	}
	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return mix(l, delL, w), mix(r, delR, w)
}

// read returns the buffer value delay samples ago with linear interpolation.
func (c *Chorus) read(buf []float32, delay float64) float32 {
	readPos := float64(c.pos) - delay
	for readPos < 0 {
		readPos += float64(c.size)
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}

func (c *Chorus) Reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.pos = 0
	c.phase = 0
}
