// Package speech tracks whether the assistant is producing audio and runs the
// interrupt monitor that lets the user cancel playback by voice.
package speech

import "sync"

// Gate is the shared speaking flag. The playback side sets it, the capture
// and interrupt tasks read it.
type Gate struct {
	mu       sync.Mutex
	speaking bool
}

// NewGate returns a gate in the not-speaking state.
func NewGate() *Gate {
	return &Gate{}
}

// SetSpeaking flips the flag and reports whether the value changed.
func (g *Gate) SetSpeaking(speaking bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.speaking == speaking {
		return false
	}
	g.speaking = speaking
	return true
}

// IsSpeaking reports the current flag.
func (g *Gate) IsSpeaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.speaking
}
