package effects

import (
	"math"

	"github.com/cbegin/websynth-go/internal/ramp"
)

// Gain is the master volume stage. The level is set in dB and ramped in
// linear amplitude.
type Gain struct {
	rates
	gain ramp.Param
	db   float64
}

func NewGain(sampleRate int, db float64) *Gain {
	return &Gain{rates: newRates(sampleRate), gain: ramp.New(DBToGain(db)), db: db}
}

func (g *Gain) SetDB(db float64) {
	g.db = db
	g.gain.SetTarget(DBToGain(db), g.slow)
}

func (g *Gain) DB() float64 { return g.db }

func (g *Gain) Process(l, r float32) (float32, float32) {
	v := float32(g.gain.Next())
	return l * v, r * v
}

func (g *Gain) Reset() {}

// DBToGain converts decibels to linear amplitude.
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}
