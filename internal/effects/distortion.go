package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

// Distortion is a soft-clipping waveshaper: y = (1+k)x / (1+k|x|) with
// k = 2a/(1-a). Amount 0 passes the signal through unchanged.
type Distortion struct {
	rates
	amount ramp.Param
	wet    ramp.Param
}

func NewDistortion(sampleRate int, amount, wet float64) *Distortion {
	return &Distortion{
		rates:  newRates(sampleRate),
		amount: ramp.New(clamp(amount, 0, 1)),
		wet:    ramp.New(clamp(wet, 0, 1)),
	}
}

func (d *Distortion) SetAmount(a float64) { d.amount.SetTarget(clamp(a, 0, 1), d.slow) }
func (d *Distortion) SetWet(w float64) { d.wet.SetTarget(clamp(w, 0, 1), d.slow) }

func (d *Distortion) Process(l, r float32) (float32, float32) {
	a := math.Min(d.amount.Next(), 0.99)
	w := d.wet.Next()
	k := 2 * a / (1 - a)
	return mix(l, shape(l, k), w), mix(r, shape(r, k), w)
}

func shape(x float32, k float64) float32 {
	v := float64(x)
	return float32((1 + k) * v / (1 + k*math.Abs(v)))
}

func (d *Distortion) Reset() {}
