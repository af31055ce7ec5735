package audio

import (
	"time"

	"github.com/ebitengine/oto/v3"
)

var otoContext *oto.Context

type otoOutput struct {
	player *oto.Player
	stream *StreamReader
}

func openOto(sampleRate int, source SampleSource, buffer time.Duration) (*otoOutput, error) {
	err := acquire(BackendOto, sampleRate, func() error {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   buffer,
		})
		if err != nil {
			return err
		}
		<-ready
		otoContext = ctx
		return nil
	})
	if err != nil {
		return nil, err
	}

	stream := NewStreamReader(source)
	return &otoOutput{
		player: otoContext.NewPlayer(stream),
		stream: stream,
	}, nil
}

func (o *otoOutput) Play() { o.player.Play() }

func (o *otoOutput) Stop() error {
	o.player.Pause()
	_ = o.stream.Close()
	return o.player.Close()
}
