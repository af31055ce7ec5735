package effects

// Settings holds the initial parameters of every stage in the master chain.
type Settings struct {
	LowpassFreq, LowpassQ    float64
	HighpassFreq, HighpassQ  float64
	DistortionAmount         float64
	DistortionWet            float64
	ChorusRate, ChorusDepth  float64
	ChorusWet                float64
	PhaserRate, PhaserDepth  float64
	PhaserWet                float64
	DelayTime, DelayFeedback float64
	DelayWet                 float64
	ReverbDecay, ReverbWet   float64
	MasterDB                 float64
}

// Rack is the fixed master chain:
// lowpass, highpass, distortion, chorus, phaser, delay, reverb, master gain.
type Rack struct {
	Lowpass    *Filter
	Highpass   *Filter
	Distortion *Distortion
	Chorus     *Chorus
	Phaser     *Phaser
	Delay      *Delay
	Reverb     *Reverb
	Master     *Gain

	chain *Chain
}

func NewRack(sampleRate int, s Settings) *Rack {
	r := &Rack{
		Lowpass:    NewFilter(sampleRate, Lowpass, s.LowpassFreq, s.LowpassQ),
		Highpass:   NewFilter(sampleRate, Highpass, s.HighpassFreq, s.HighpassQ),
		Distortion: NewDistortion(sampleRate, s.DistortionAmount, s.DistortionWet),
		Chorus:     NewChorus(sampleRate, s.ChorusRate, s.ChorusDepth, s.ChorusWet),
		Phaser:     NewPhaser(sampleRate, s.PhaserRate, s.PhaserDepth, s.PhaserWet),
		Delay:      NewDelay(sampleRate, s.DelayTime, s.DelayFeedback, s.DelayWet),
		Reverb:     NewReverb(sampleRate, s.ReverbDecay, s.ReverbWet),
		Master:     NewGain(sampleRate, s.MasterDB),
	}
	r.chain = NewChain(r.Lowpass, r.Highpass, r.Distortion, r.Chorus, r.Phaser, r.Delay, r.Reverb, r.Master)
	return r
}

func (r *Rack) Process(l, rr float32) (float32, float32) { return r.chain.Process(l, rr) }
func (r *Rack) Reset() { r.chain.Reset() }
