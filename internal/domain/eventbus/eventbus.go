// Package eventbus carries cross-component notifications so the capture,
// session and interrupt tasks stay decoupled.
package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Topics published by the pipeline.
const (
	// TopicUtteranceFinalized fires with (identity string, text string) once
	// an utterance has been assembled and attributed to a session.
	TopicUtteranceFinalized = "utterance.finalized"
	// TopicSessionOpened fires with (identity string, sessionID string).
	TopicSessionOpened = "session.opened"
	// TopicSessionClosed fires with (identity string, sessionID string,
	// reason string).
	TopicSessionClosed = "session.closed"
	// TopicSpeechInterrupted fires with no arguments when the user cancels
	// assistant playback.
	TopicSpeechInterrupted = "speech.interrupted"
)

// Bus is the process-wide publish/subscribe surface.
type Bus = evbus.Bus

// New creates an empty bus.
func New() Bus {
	return evbus.New()
}
