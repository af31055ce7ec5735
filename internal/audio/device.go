package audio

import (
	"fmt"
	"sync"
)

// device guards the single audio context a process may own. Ebiten's audio
// runs on oto, so whichever backend opens first owns the device for good.
var device struct {
	mu      sync.Mutex
	backend string
	rate    int
	err     error
}

// acquire runs open the first time a backend asks for the device and
// replays its result afterwards. A different backend or rate fails.
func acquire(backend string, sampleRate int, open func() error) error {
	device.mu.Lock()
	defer device.mu.Unlock()

	if device.backend == "" {
		device.backend = backend
		device.rate = sampleRate
		device.err = open()
		return device.err
	}
	if device.backend != backend {
		return fmt.Errorf("audio device already opened by %s", device.backend)
	}
	if device.rate != sampleRate {
		return fmt.Errorf("audio device already running at %d Hz (requested %d Hz)", device.rate, sampleRate)
	}
	return device.err
}
