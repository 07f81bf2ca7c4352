package providers

import (
	"context"
	"time"
)

// PCM is a buffer of raw little-endian 16-bit samples.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration derives the playback length from the sample format.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 || p.Channels <= 0 {
		return 0
	}
	samples := len(p.Data) / (2 * p.Channels)
	return time.Duration(samples) * time.Second / time.Duration(p.SampleRate)
}

// Empty reports whether the buffer holds no samples.
func (p PCM) Empty() bool {
	return len(p.Data) == 0
}

// Segment is one captured slice of audio. Segments are ephemeral: the capture
// engine owns them until they are transcribed or discarded.
type Segment struct {
	Audio    PCM
	Captured time.Time
}

// AudioSource delivers fixed-duration audio segments from the device.
//
// Open must be called before Next; an Open failure is the only hard error in
// the capture path. Next blocks until roughly the requested duration of audio
// has been buffered, the context is done, or the stream ends.
type AudioSource interface {
	Open() error
	Next(ctx context.Context, duration time.Duration) (Segment, error)
	Close() error
}
