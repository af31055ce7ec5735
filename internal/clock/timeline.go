// Package clock provides a sample-frame timeline. One-shot commands fire at
// an exact frame; loops repeat while the transport runs.
package clock

import "sort"

// Func is called with the frame it was scheduled for.
type Func func(at int64)

type event struct {
	id uint64
	at int64
	fn Func
}

// Timeline is advanced one frame at a time by the audio callback. It is not
// safe for concurrent use.
type Timeline struct {
	now     int64
	running bool
	nextID  uint64
	events  []event
	loops   []*Loop
}

func New() *Timeline {
	return &Timeline{}
}

// Now returns the frame that the next Step fires.
func (t *Timeline) Now() int64 { return t.now }

func (t *Timeline) Running() bool { return t.running }

// Start resumes loop ticking. One-shot events fire regardless.
func (t *Timeline) Start() { t.running = true }

func (t *Timeline) Stop() { t.running = false }

// Schedule queues fn to run at frame at. A frame in the past runs on the next
// Step. The returned id can be passed to Cancel.
func (t *Timeline) Schedule(at int64, fn Func) uint64 {
	t.nextID++
	ev := event{id: t.nextID, at: at, fn: fn}
	i := sort.Search(len(t.events), func(i int) bool { return t.events[i].at > at })
	t.events = append(t.events, event{})
	copy(t.events[i+1:], t.events[i:])
	t.events[i] = ev
	return ev.id
}

// Cancel removes a pending event. It reports whether the event was pending.
func (t *Timeline) Cancel(id uint64) bool {
	for i, ev := range t.events {
		if ev.id == id {
			t.events = append(t.events[:i], t.events[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of queued one-shot events.
func (t *Timeline) Pending() int { return len(t.events) }

// Step fires everything due at the current frame and advances by one.
func (t *Timeline) Step() {
	for len(t.events) > 0 && t.events[0].at <= t.now {
		ev := t.events[0]
		t.events = t.events[1:]
		ev.fn(t.now)
	}
	if len(t.loops) > 0 {
		loops := append([]*Loop(nil), t.loops...)
		for _, l := range loops {
			l.step(t.now, t.running)
		}
	}
	t.now++
}

// Reset drops all events and loops and rewinds to frame zero.
func (t *Timeline) Reset() {
	for _, l := range t.loops {
		l.disposed = true
		l.active = false
	}
	t.events = nil
	t.loops = nil
	t.now = 0
	t.running = false
}

// Loop calls its callback every interval frames. The interval function is
// evaluated after each tick, so a changed interval applies to the next step
// without restarting the loop.
type Loop struct {
	tl       *Timeline
	interval func() int64
	fn       Func
	next     int64
	active   bool
	disposed bool
}

func (t *Timeline) NewLoop(interval func() int64, fn Func) *Loop {
	l := &Loop{tl: t, interval: interval, fn: fn}
	t.loops = append(t.loops, l)
	return l
}

// Start schedules the first tick at frame at.
func (l *Loop) Start(at int64) {
	if l.disposed {
		return
	}
	l.next = at
	l.active = true
}

func (l *Loop) Stop() { l.active = false }

func (l *Loop) Active() bool { return l.active }

// Next returns the frame of the next tick.
func (l *Loop) Next() int64 { return l.next }

func (l *Loop) SetInterval(interval func() int64) { l.interval = interval }

// Dispose stops the loop and detaches it from the timeline.
func (l *Loop) Dispose() {
	if l.disposed {
		return
	}
	l.active = false
	l.disposed = true
	for i, other := range l.tl.loops {
		if other == l {
			l.tl.loops = append(l.tl.loops[:i], l.tl.loops[i+1:]...)
			break
		}
	}
}

func (l *Loop) step(now int64, running bool) {
	if !l.active {
		return
	}
	if !running {
		// Hold the phase while the transport is paused.
		if l.next <= now {
			l.next = now + 1
		}
		return
	}
	if l.next > now {
		return
	}
	l.fn(now)
	if !l.active {
		return
	}
	iv := l.interval()
	if iv < 1 {
		iv = 1
	}
	l.next = now + iv
}
