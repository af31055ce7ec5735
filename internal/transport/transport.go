// Package transport owns the tempo and the shared start/stop clock. Several
// consumers may claim the clock at once; it runs while any claim is held.
package transport

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/websynth-go/internal/clock"
)

const (
	MinBPM     = 40.0
	MaxBPM     = 240.0
	DefaultBPM = 120.0

	// TapWindow is how long a tap counts toward the tap-tempo average.
	TapWindow = 2 * time.Second

	// Manual is the consumer used by the start/stop/toggle controls.
	Manual = "transport"
)

// Rate is a note value such as "1/8".
type Rate string

const (
	Quarter      Rate = "1/4"
	Eighth       Rate = "1/8"
	Sixteenth    Rate = "1/16"
	ThirtySecond Rate = "1/32"
)

var Rates = []Rate{Quarter, Eighth, Sixteenth, ThirtySecond}

func ParseRate(s string) (Rate, bool) {
	for _, r := range Rates {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Rate) denominator() int {
	switch r {
	case Quarter:
		return 4
	case Sixteenth:
		return 16
	case ThirtySecond:
		return 32
	default:
		return 8
	}
}

// Symbol returns the scheduler notation for the rate, e.g. "8n".
func (r Rate) Symbol() string {
	return strconv.Itoa(r.denominator()) + "n"
}

func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) {
		return DefaultBPM
	}
	return math.Max(MinBPM, math.Min(MaxBPM, bpm))
}

type Option func(*Transport)

// WithNow overrides the wall clock used for tap tempo.
func WithNow(now func() time.Time) Option {
	return func(t *Transport) { t.now = now }
}

// WithStateHook registers a callback fired when the clock starts or stops.
func WithStateHook(fn func(running bool)) Option {
	return func(t *Transport) { t.onState = fn }
}

type Transport struct {
	sampleRate int
	timeline   *clock.Timeline
	bpm        float64
	claims     map[string]struct{}
	taps       []time.Time
	now        func() time.Time
	onState    func(running bool)
}

func New(sampleRate int, tl *clock.Timeline, opts ...Option) *Transport {
	t := &Transport{
		sampleRate: sampleRate,
		timeline:   tl,
		bpm:        DefaultBPM,
		claims:     map[string]struct{}{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Timeline() *clock.Timeline { return t.timeline }

func (t *Transport) BPM() float64 { return t.bpm }

// SetBPM clamps and applies bpm, returning the applied value.
func (t *Transport) SetBPM(bpm float64) float64 {
	t.bpm = ClampBPM(bpm)
	return t.bpm
}

// Tap records a tap. Once two or more recent taps exist the tempo is
// recomputed from their mean interval; ok reports whether that happened.
func (t *Transport) Tap() (bpm float64, ok bool) {
	now := t.now()
	recent := t.taps[:0]
	for _, tap := range t.taps {
		if now.Sub(tap) < TapWindow {
			recent = append(recent, tap)
		}
	}
	t.taps = append(recent, now)
	if len(t.taps) < 2 {
		return t.bpm, false
	}
	var total time.Duration
	for i := 1; i < len(t.taps); i++ {
		total += t.taps[i].Sub(t.taps[i-1])
	}
	avgMs := float64(total.Milliseconds()) / float64(len(t.taps)-1)
	if avgMs <= 0 {
		return t.bpm, false
	}
	return t.SetBPM(math.Round(60000 / avgMs)), true
}

// RequestStart adds a claim and starts the clock on the first one.
func (t *Transport) RequestStart(consumer string) {
	wasRunning := t.Running()
	t.claims[consumer] = struct{}{}
	if !wasRunning {
		t.timeline.Start()
		t.notify(true)
	}
}

// Release drops a claim. The clock stops only when the last claim goes.
func (t *Transport) Release(consumer string) {
	if _, ok := t.claims[consumer]; !ok {
		return
	}
	delete(t.claims, consumer)
	if len(t.claims) == 0 {
		t.timeline.Stop()
		t.notify(false)
	}
}

func (t *Transport) Claimed(consumer string) bool {
	_, ok := t.claims[consumer]
	return ok
}

// Claims returns the current consumers in sorted order.
func (t *Transport) Claims() []string {
	out := make([]string, 0, len(t.claims))
	for c := range t.claims {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (t *Transport) Running() bool { return len(t.claims) > 0 }

func (t *Transport) Start() { t.RequestStart(Manual) }

func (t *Transport) Stop() { t.Release(Manual) }

// Toggle flips the manual claim and reports whether the clock runs after.
func (t *Transport) Toggle() bool {
	if t.Claimed(Manual) {
		t.Stop()
	} else {
		t.Start()
	}
	return t.Running()
}

// ReleaseAll drops every claim and stops the clock.
func (t *Transport) ReleaseAll() {
	if len(t.claims) == 0 {
		return
	}
	t.claims = map[string]struct{}{}
	t.timeline.Stop()
	t.notify(false)
}

// Seconds returns the duration of one note of the given rate at the current
// tempo.
func (t *Transport) Seconds(r Rate) float64 {
	return 60 / t.bpm * 4 / float64(r.denominator())
}

func (t *Transport) Symbol(r Rate) string { return r.Symbol() }

// Frames resolves a symbol such as "16n" to sample frames at the current
// tempo. Unknown symbols resolve as eighth notes.
func (t *Transport) Frames(symbol string) int64 {
	den, err := strconv.Atoi(strings.TrimSuffix(symbol, "n"))
	if err != nil || den <= 0 {
		den = 8
	}
	secs := 60 / t.bpm * 4 / float64(den)
	return int64(math.Round(secs * float64(t.sampleRate)))
}

func (t *Transport) notify(running bool) {
	if t.onState != nil {
		t.onState(running)
	}
}
