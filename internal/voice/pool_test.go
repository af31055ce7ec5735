package voice

import (
	"math"
	"testing"
)

func renderEnergy(p *Pool, frames int) float64 {
	var energy float64
	for i := 0; i < frames; i++ {
		energy += math.Abs(p.Render())
	}
	return energy
}

func TestPoolAttackProducesAudio(t *testing.T) {
	p := NewPool(48000, Sawtooth, 0.01, 0.3)
	p.Attack(440, 0, 0)
	if energy := renderEnergy(p, 4800); energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
	if p.Gated() != 1 {
		t.Fatalf("gated = %d, want 1", p.Gated())
	}
}

func TestPoolGatedMatchesHeldUpToFour(t *testing.T) {
	p := NewPool(48000, Sine, 0.01, 0.3)
	freqs := []float64{220, 330, 440, 550, 660, 770}
	keys := map[float64]float64{}
	for i, f := range freqs {
		keys[f] = p.Attack(f, 0, 0)
		renderEnergy(p, 10)
		want := i + 1
		if want > MaxVoices {
			want = MaxVoices
		}
		if p.Gated() != want {
			t.Fatalf("after %d notes gated = %d, want %d", i+1, p.Gated(), want)
		}
	}
	for _, f := range freqs {
		p.Release(keys[f])
	}
	if p.Gated() != 0 {
		t.Fatalf("gated after releasing all = %d", p.Gated())
	}
}

func TestPoolReleaseUnknownKeyIsIgnored(t *testing.T) {
	p := NewPool(48000, Sine, 0.01, 0.3)
	p.Attack(440, 0, 0)
	if p.Release(123.45) {
		t.Fatalf("releasing an untracked key must report false")
	}
	if p.Gated() != 1 {
		t.Fatalf("untracked release changed the pool")
	}
}

func TestPoolReleasedVoiceIsReused(t *testing.T) {
	p := NewPool(48000, Sine, 0.001, 0.5)
	for _, f := range []float64{100, 200, 300, 400} {
		p.Release(p.Attack(f, 0, 0))
	}
	// All four are in release; a new note takes the quietest without growing the pool.
	p.Attack(500, 0, 0)
	if p.Active() != MaxVoices {
		t.Fatalf("active = %d, want %d", p.Active(), MaxVoices)
	}
	if p.Gated() != 1 {
		t.Fatalf("gated = %d, want 1", p.Gated())
	}
}

func TestPoolKeyFollowsBend(t *testing.T) {
	p := NewPool(48000, Sine, 0.01, 0.3)
	p.SetBend(2)
	key := p.Attack(220, 0, 0)
	if key != 440 {
		t.Fatalf("key = %f, want bent frequency 440", key)
	}
	p.SetBend(1)
	if !p.Release(key) {
		t.Fatalf("key recorded at note-on must still release after the bend moves")
	}
}

func TestPoolPortamentoGlidesToTarget(t *testing.T) {
	p := NewPool(1000, Sine, 0.001, 0.3)
	p.Attack(200, 100, 10)
	v := &p.voices[0]
	if v.base != 100 {
		t.Fatalf("glide starts at %f, want 100", v.base)
	}
	for i := 0; i < 10; i++ {
		p.Render()
	}
	if v.base != 200 {
		t.Fatalf("glide ended at %f, want 200", v.base)
	}
}

func TestSubOscFollowsEnvelope(t *testing.T) {
	s := NewSubOsc(48000, 1, 0.01, 0.1)
	if s.Render() != 0 {
		t.Fatalf("idle sub oscillator must be silent")
	}
	s.SetFrequency(110, 0)
	s.Envelope().Trigger()
	var energy float64
	for i := 0; i < 4800; i++ {
		energy += math.Abs(s.Render())
	}
	if energy == 0 {
		t.Fatalf("expected sub oscillator output")
	}
}

func TestNoiseColoursAreBounded(t *testing.T) {
	for _, kind := range []NoiseType{White, Pink, Brown} {
		n := NewNoise(48000, kind, 1, 0.001, 0.1)
		n.Envelope().Trigger()
		var energy float64
		for i := 0; i < 48000; i++ {
			v := n.Render()
			if math.Abs(v) > 2 {
				t.Fatalf("%v noise out of range: %f", kind, v)
			}
			energy += math.Abs(v)
		}
		if energy == 0 {
			t.Fatalf("%v noise is silent", kind)
		}
	}
}

func TestPoolReportsStolenVoice(t *testing.T) {
	p := NewPool(48000, Sine, 0.01, 0.3)
	var stolen []float64
	p.OnSteal(func(f, key float64) { stolen = append(stolen, f, key) })

	for _, f := range []float64{100, 200, 300, 400} {
		p.Attack(f, 0, 0)
	}
	if len(stolen) != 0 {
		t.Fatalf("steal reported with a free voice: %v", stolen)
	}
	p.Attack(500, 0, 0)
	if len(stolen) != 2 || stolen[0] != 100 || stolen[1] != 500 {
		t.Fatalf("stolen = %v, want [100 500]", stolen)
	}
	if p.Gated() != MaxVoices {
		t.Fatalf("gated = %d, want %d", p.Gated(), MaxVoices)
	}
}
