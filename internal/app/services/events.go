package services

import (
	"companion-voice-go/internal/domain/eventbus"
	"companion-voice-go/internal/domain/session"
)

// BusSessionEvents republishes session lifecycle changes onto the event bus.
type BusSessionEvents struct {
	Bus eventbus.Bus
}

var _ session.Events = BusSessionEvents{}

func (e BusSessionEvents) SessionOpened(identity, sessionID string) {
	e.Bus.Publish(eventbus.TopicSessionOpened, identity, sessionID)
}

func (e BusSessionEvents) SessionClosed(identity, sessionID, reason string) {
	e.Bus.Publish(eventbus.TopicSessionClosed, identity, sessionID, reason)
}
