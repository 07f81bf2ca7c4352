// Package services composes the domain components into the per-connection
// voice pipeline.
package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"companion-voice-go/internal/domain/capture"
	"companion-voice-go/internal/domain/environ"
	"companion-voice-go/internal/domain/eventbus"
	"companion-voice-go/internal/domain/session"
	"companion-voice-go/internal/platform/errors"
	"companion-voice-go/internal/platform/logging"
)

const defaultIdleWait = 200 * time.Millisecond

// Listener is the capture call the pipeline loops on. The capture engine
// satisfies it.
type Listener interface {
	Listen(ctx context.Context, req capture.Request) (string, error)
}

// Runner is a long-lived task tied to the pipeline's lifetime, typically the
// interrupt monitor.
type Runner interface {
	Run(ctx context.Context) error
}

// UtteranceHandler receives every utterance attributed to an active session.
type UtteranceHandler func(ctx context.Context, identity, text string)

// Pipeline drives one device connection: a capture loop feeding the session
// manager, with the interrupt monitor running alongside.
type Pipeline struct {
	listener Listener
	monitor  Runner
	sessions *session.Manager
	speaking capture.SpeakingState
	bus      eventbus.Bus
	handler  UtteranceHandler
	logger   *logging.Logger

	phraseTimeout    time.Duration
	silenceThreshold time.Duration
	maxTotalTime     time.Duration
	idleWait         time.Duration
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Listener Listener
	// Monitor is optional; without it interruption by voice is disabled.
	Monitor  Runner
	Sessions *session.Manager
	// Speaking is optional; when set the capture loop waits instead of
	// re-invoking Listen while the assistant is producing audio.
	Speaking capture.SpeakingState
	Bus      eventbus.Bus
	// Handler is invoked for utterances that belong to an active session.
	Handler UtteranceHandler
	Logger  *logging.Logger

	PhraseTimeout    time.Duration
	SilenceThreshold time.Duration
	MaxTotalTime     time.Duration
	// IdleWait is the pause between speaking-state checks, default 200ms.
	IdleWait time.Duration
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	idleWait := cfg.IdleWait
	if idleWait <= 0 {
		idleWait = defaultIdleWait
	}
	return &Pipeline{
		listener:         cfg.Listener,
		monitor:          cfg.Monitor,
		sessions:         cfg.Sessions,
		speaking:         cfg.Speaking,
		bus:              cfg.Bus,
		handler:          cfg.Handler,
		logger:           cfg.Logger,
		phraseTimeout:    cfg.PhraseTimeout,
		silenceThreshold: cfg.SilenceThreshold,
		maxTotalTime:     cfg.MaxTotalTime,
		idleWait:         idleWait,
	}
}

// Run blocks until ctx is cancelled or the audio source dies. Degraded
// transcription never ends the pipeline; a dead audio source always does.
func (p *Pipeline) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.captureLoop(gctx) })
	if p.monitor != nil {
		g.Go(func() error { return p.monitor.Run(gctx) })
	}

	err := g.Wait()
	if ctx.Err() != nil {
		// Shutdown requested upstream; cancellation is not a failure.
		return nil
	}
	return err
}

func (p *Pipeline) captureLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The engine aborts instantly while the assistant speaks; waiting
		// here keeps that abort from turning into a busy loop. The
		// interrupt monitor owns listening during playback.
		for p.speaking != nil && p.speaking.IsSpeaking() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.idleWait):
			}
		}

		text, err := p.listener.Listen(ctx, capture.Request{
			PhraseTimeout:    p.phraseTimeout,
			SilenceThreshold: p.silenceThreshold,
			MaxTotalTime:     p.maxTotalTime,
			Mode:             environ.ModeNormal,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.IsKind(err, errors.KindAudio) {
				return err
			}
			p.logger.ErrorTag("capture", "listen failed, retrying: %v", err)
			continue
		}
		if text == "" {
			continue
		}

		identity := p.sessions.OnUtterance(text)
		if p.bus != nil {
			p.bus.Publish(eventbus.TopicUtteranceFinalized, identity, text)
		}
		if identity == "" {
			p.logger.DebugTag("session", "utterance outside any session: %q", text)
			continue
		}
		if p.handler != nil {
			p.handler(ctx, identity, text)
		}
	}
}
