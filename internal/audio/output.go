package audio

import (
	"context"
	"sync"
	"time"

	interrors "github.com/cbegin/websynth-go/internal/errors"
)

// Backend names accepted by Open.
const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
	BackendNone   = "none"
)

// Output is a running audio sink.
type Output interface {
	Play()
	Stop() error
}

// Open starts pulling source through the named backend. The "none" backend
// renders in real time and discards the audio, so scheduled events still run
// on machines without a sound device.
func Open(backend string, sampleRate int, source SampleSource, buffer time.Duration) (Output, error) {
	var (
		out Output
		err error
	)
	switch backend {
	case BackendEbiten, "":
		out, err = openEbiten(sampleRate, source, buffer)
		backend = BackendEbiten
	case BackendOto:
		out, err = openOto(sampleRate, source, buffer)
	case BackendNone:
		out = NewDiscard(sampleRate, source, buffer)
	default:
		err = interrors.ErrBackendUnavailable
	}
	if err != nil {
		return nil, &interrors.BackendError{Backend: backend, Op: "open", Cause: err}
	}
	return out, nil
}

// Discard pulls blocks of buffer length from a source at the wall-clock rate
// and drops them.
type Discard struct {
	source SampleSource
	period time.Duration
	frames int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDiscard(sampleRate int, source SampleSource, buffer time.Duration) *Discard {
	if buffer <= 0 {
		buffer = 10 * time.Millisecond
	}
	frames := max(1, int(buffer.Seconds()*float64(sampleRate)))
	return &Discard{
		source: source,
		period: buffer,
		frames: frames,
	}
}

func (d *Discard) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

func (d *Discard) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	buf := make([]float32, d.frames*2)
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.source.Process(buf)
		}
	}
}

func (d *Discard) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
