package providers

import (
	"context"
	"errors"
)

// ErrNoSpeech reports that the service found no usable speech in the audio.
// Callers treat it the same as an empty transcript.
var ErrNoSpeech = errors.New("no speech detected")

// ErrServiceUnavailable reports a transient transcription failure. The
// capture path absorbs it as silence and never surfaces it.
var ErrServiceUnavailable = errors.New("transcription service unavailable")

// Transcriber converts one audio buffer into text.
//
// languageHint is a BCP-47 tag such as "en-US"; an empty hint lets the
// service pick. Implementations return ErrNoSpeech or ErrServiceUnavailable,
// both of which callers degrade to "no usable text".
type Transcriber interface {
	Transcribe(ctx context.Context, audio PCM, languageHint string) (string, error)
}
