package speech

import (
	"context"
	"strings"
	"time"

	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/domain/capture"
	"companion-voice-go/internal/domain/environ"
	"companion-voice-go/internal/domain/eventbus"
	"companion-voice-go/internal/platform/logging"
)

const defaultPollInterval = 200 * time.Millisecond

// Listener is the short-window capture call the monitor drives. The capture
// engine satisfies it.
type Listener interface {
	Listen(ctx context.Context, req capture.Request) (string, error)
}

// Monitor listens for cancellation phrases while the assistant speaks. It is
// the only capture path that runs concurrently with playback.
type Monitor struct {
	gate     *Gate
	listener Listener
	playback providers.Playback
	phrases  []string
	silence  time.Duration
	maxTime  time.Duration
	poll     time.Duration
	bus      eventbus.Bus
	logger   *logging.Logger
}

// MonitorConfig wires a Monitor.
type MonitorConfig struct {
	Gate     *Gate
	Listener Listener
	Playback providers.Playback
	// Phrases are the literal cancellations, e.g. "stop", "be quiet".
	Phrases []string
	// SilenceThreshold and MaxListenTime bound each interrupt-check window;
	// both are short so the check stays responsive.
	SilenceThreshold time.Duration
	MaxListenTime    time.Duration
	// PollInterval is the idle wait between checks of the speaking flag.
	PollInterval time.Duration
	Bus          eventbus.Bus
	Logger       *logging.Logger
}

// NewMonitor creates an interrupt monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Monitor{
		gate:     cfg.Gate,
		listener: cfg.Listener,
		playback: cfg.Playback,
		phrases:  cfg.Phrases,
		silence:  cfg.SilenceThreshold,
		maxTime:  cfg.MaxListenTime,
		poll:     poll,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
	}
}

// Run blocks until ctx is cancelled. While the gate reports speaking it opens
// short interrupt-check listen windows; a cancellation phrase stops playback
// immediately and clears the gate.
//
// Listen errors are hard by contract (the engine absorbs everything except an
// unavailable audio source), so they propagate and end the monitor.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if !m.gate.IsSpeaking() {
			continue
		}

		text, err := m.listener.Listen(ctx, capture.Request{
			SilenceThreshold: m.silence,
			MaxTotalTime:     m.maxTime,
			Mode:             environ.ModeInterruptCheck,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if m.isCancellation(text) {
			m.interrupt(text)
		}
	}
}

func (m *Monitor) interrupt(text string) {
	m.logger.InfoTag("interrupt", "cancellation heard: %q", text)
	if err := m.playback.StopImmediately(); err != nil {
		m.logger.ErrorTag("interrupt", "stop playback: %v", err)
	}
	m.gate.SetSpeaking(false)
	if m.bus != nil {
		m.bus.Publish(eventbus.TopicSpeechInterrupted)
	}
}

func (m *Monitor) isCancellation(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	for _, phrase := range m.phrases {
		if phrase != "" && strings.Contains(normalized, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
