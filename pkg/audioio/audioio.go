package audioio

import (
	"context"
	"errors"
	"io"
)

// ErrClosed is returned by a stopped Source or Sink.
var ErrClosed = errors.New("audioio: closed")

// Source captures audio from an input device.
type Source interface {
	// Start begins capture; chunks arrive on Stream until Stop.
	Start(ctx context.Context) error
	Stop() error

	// Stream returns PCM16 chunks. It is closed when the source stops.
	Stream() <-chan []byte

	Config() Config
	Name() string
	io.Closer
}

// Sink plays audio on an output device.
type Sink interface {
	Start(ctx context.Context) error
	Stop() error

	// Write queues PCM16 audio for playback.
	Write(ctx context.Context, pcm []byte) error

	// Flush waits until queued audio has been handed to the device.
	Flush(ctx context.Context) error

	// Clear drops queued audio, used when the user interrupts.
	Clear() error

	Config() Config
	Name() string
	io.Closer
}

// Pump forwards source chunks to send until ctx is done or the source
// closes. Chunks are resampled to rate when it differs from the source's.
// A send error stops the pump and is returned.
func Pump(ctx context.Context, src Source, rate int, send func([]byte) error) error {
	from := src.Config().SampleRate
	stream := src.Stream()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pcm, ok := <-stream:
			if !ok {
				return nil
			}
			if rate > 0 && from != rate {
				pcm = ResampleBytes(pcm, from, rate)
			}
			if err := send(pcm); err != nil {
				return err
			}
		}
	}
}
