// Package session manages the single active conversation session. A trigger
// phrase opens a session for an identity; while the session lives, follow-up
// utterances need no trigger phrase.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"companion-voice-go/internal/platform/logging"
)

// DefaultTimeout is how long a session survives without interaction. It is a
// configuration constant, independent of the environment profile.
const DefaultTimeout = 30 * time.Second

// Session is one bounded conversation with an identity.
type Session struct {
	ID              string
	Identity        string
	LastInteraction time.Time
}

// Events receives session lifecycle notifications. All methods are optional.
type Events interface {
	SessionOpened(identity, sessionID string)
	SessionClosed(identity, sessionID, reason string)
}

// Manager is the wake-word / session state machine. At most one session is
// active at a time; all state is guarded by one mutex because the capture and
// interrupt tasks may both call in.
type Manager struct {
	mu         sync.Mutex
	triggers   map[string][]string
	endPhrases []string
	timeout    time.Duration
	active     *Session
	now        func() time.Time
	events     Events
	logger     *logging.Logger
}

// Config wires a Manager.
type Config struct {
	// Triggers maps an identity to its literal accepted phrases: the
	// canonical phrase plus common mishearing variants.
	Triggers map[string][]string
	// EndPhrases close the active session explicitly.
	EndPhrases []string
	// Timeout defaults to DefaultTimeout when zero.
	Timeout time.Duration
	// Now is injectable for tests; defaults to time.Now.
	Now    func() time.Time
	Events Events
	Logger *logging.Logger
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		triggers:   cfg.Triggers,
		endPhrases: cfg.EndPhrases,
		timeout:    timeout,
		now:        now,
		events:     cfg.Events,
		logger:     cfg.Logger,
	}
}

// OnUtterance consumes one assembled transcript and returns the identity the
// utterance belongs to, or "" when no session is active and no trigger phrase
// matched.
//
// While a session is active, any non-empty utterance refreshes it, including
// another identity's trigger phrase: the active session wins until it times
// out or is ended.
func (m *Manager) OnUtterance(text string) string {
	normalized := normalize(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked()

	if m.active != nil {
		if normalized == "" {
			return ""
		}
		if m.isEndPhrase(normalized) {
			m.closeLocked("ended")
			return ""
		}
		m.active.LastInteraction = m.now()
		return m.active.Identity
	}

	if identity := m.matchTrigger(normalized); identity != "" {
		m.active = &Session{
			ID:              uuid.NewString(),
			Identity:        identity,
			LastInteraction: m.now(),
		}
		m.logger.InfoTag("session", "opened for %s (%s)", identity, m.active.ID)
		if m.events != nil {
			m.events.SessionOpened(identity, m.active.ID)
		}
		return identity
	}

	return ""
}

// Active returns a copy of the live session, expiring it first if stale.
func (m *Manager) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked()
	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// End closes the active session regardless of its age.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.closeLocked("ended")
	}
}

func (m *Manager) expireLocked() {
	if m.active == nil {
		return
	}
	if m.now().Sub(m.active.LastInteraction) > m.timeout {
		m.closeLocked("timeout")
	}
}

func (m *Manager) closeLocked(reason string) {
	s := m.active
	m.active = nil
	m.logger.InfoTag("session", "closed for %s (%s): %s", s.Identity, s.ID, reason)
	if m.events != nil {
		m.events.SessionClosed(s.Identity, s.ID, reason)
	}
}

// matchTrigger checks identities in lexical order, so an utterance carrying
// trigger phrases for more than one identity resolves the same way every
// time.
func (m *Manager) matchTrigger(normalized string) string {
	if normalized == "" {
		return ""
	}
	identities := make([]string, 0, len(m.triggers))
	for identity := range m.triggers {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	for _, identity := range identities {
		for _, phrase := range m.triggers[identity] {
			if phrase != "" && strings.Contains(normalized, normalize(phrase)) {
				return identity
			}
		}
	}
	return ""
}

func (m *Manager) isEndPhrase(normalized string) bool {
	for _, phrase := range m.endPhrases {
		if phrase != "" && strings.Contains(normalized, normalize(phrase)) {
			return true
		}
	}
	return false
}

// normalize lowercases and strips punctuation so literal phrase tables match
// transcription output.
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
