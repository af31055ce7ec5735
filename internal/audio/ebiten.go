package audio

import (
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var ebitenContext *ebitaudio.Context

type ebitenOutput struct {
	player *ebitaudio.Player
	stream *StreamReader
}

func openEbiten(sampleRate int, source SampleSource, buffer time.Duration) (*ebitenOutput, error) {
	err := acquire(BackendEbiten, sampleRate, func() error {
		ebitenContext = ebitaudio.NewContext(sampleRate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	stream := NewStreamReader(source)
	pl, err := ebitenContext.NewPlayerF32(stream)
	if err != nil {
		return nil, err
	}
	if buffer > 0 {
		pl.SetBufferSize(buffer)
	}
	return &ebitenOutput{player: pl, stream: stream}, nil
}

func (o *ebitenOutput) Play() { o.player.Play() }

func (o *ebitenOutput) Stop() error {
	o.player.Pause()
	_ = o.stream.Close()
	return o.player.Close()
}
