// Package capture drives the chunk-by-chunk listening loop and decides when
// an utterance has finished. Endpointing is based on accumulated silence; no
// single authoritative "utterance complete" signal exists, so the engine
// combines the self-speech filter, the environment profile and an
// incomplete-sentence heuristic.
package capture

import (
	"context"
	"strings"
	"time"

	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/domain/environ"
	"companion-voice-go/internal/domain/filter"
	"companion-voice-go/internal/platform/errors"
	"companion-voice-go/internal/platform/logging"
)

// SpeakingState exposes whether the assistant is currently producing audio.
// While true, no chunk may be treated as candidate human speech.
type SpeakingState interface {
	IsSpeaking() bool
}

// Assembler turns the retained segments of a finalized utterance into one
// transcript. An empty result means no usable text.
type Assembler interface {
	Assemble(ctx context.Context, segments []providers.Segment) string
}

// Request parameterizes one listen call.
type Request struct {
	// PhraseTimeout bounds a single chunk acquisition.
	PhraseTimeout time.Duration
	// SilenceThreshold is the accumulated-silence endpoint, before the
	// profile's tolerance multiplier is applied.
	SilenceThreshold time.Duration
	// MaxTotalTime caps the whole listen call.
	MaxTotalTime time.Duration
	// Mode selects chunk duration and threshold tuning.
	Mode environ.Mode
}

// Engine is the segment capture and endpointing engine. One logical capture
// task runs per Listen call; the engine holds no lock across chunk
// acquisition or transcription.
type Engine struct {
	source    providers.AudioSource
	stt       providers.Transcriber
	filter    *filter.Filter
	speaking  SpeakingState
	assembler Assembler
	profile   environ.Profile
	openers   OpenerSet
	hint      string
	logger    *logging.Logger
}

// Config wires an Engine.
type Config struct {
	Source    providers.AudioSource
	STT       providers.Transcriber
	Filter    *filter.Filter
	Speaking  SpeakingState
	Assembler Assembler
	Profile   environ.Profile
	Openers   OpenerSet
	// LanguageHint is passed to per-chunk transcription.
	LanguageHint string
	Logger       *logging.Logger
}

// NewEngine creates an engine from the config. The opener set defaults to
// English when unset.
func NewEngine(cfg Config) *Engine {
	openers := cfg.Openers
	if len(openers.Openers) == 0 {
		openers = EnglishOpeners()
	}
	return &Engine{
		source:    cfg.Source,
		stt:       cfg.STT,
		filter:    cfg.Filter,
		speaking:  cfg.Speaking,
		assembler: cfg.Assembler,
		profile:   cfg.Profile,
		openers:   openers,
		hint:      cfg.LanguageHint,
		logger:    cfg.Logger,
	}
}

// baseChunkDuration returns the unscaled capture slice per mode. Interrupt
// checking uses short slices so a cancellation phrase lands quickly.
func baseChunkDuration(mode environ.Mode) time.Duration {
	switch mode {
	case environ.ModeWordGame:
		return 1200 * time.Millisecond
	case environ.ModeInterruptCheck:
		return 600 * time.Millisecond
	default:
		return 2 * time.Second
	}
}

// Listen captures chunks until the utterance endpoint is reached, then hands
// the retained segments to the assembler and returns its transcript.
//
// An empty result with a nil error covers both "nothing was said" and
// "transcription degraded"; the two are intentionally indistinguishable. The
// only hard error is an audio source that cannot be opened.
func (e *Engine) Listen(ctx context.Context, req Request) (string, error) {
	if err := e.source.Open(); err != nil {
		return "", errors.Wrap(errors.KindAudio, "capture.listen", "audio source unavailable", err)
	}
	defer func() { _ = e.source.Close() }()

	chunkDur := e.profile.ChunkDuration(baseChunkDuration(req.Mode))
	silenceLimit := e.profile.SilenceTolerance(req.SilenceThreshold)

	buffer := NewUtteranceBuffer()
	var elapsed time.Duration
	var silence time.Duration
	humanSpeechDetected := false

	e.logger.DebugTag("capture", "listen start mode=%s chunk=%s silence_limit=%s max=%s",
		req.Mode, chunkDur, silenceLimit, req.MaxTotalTime)

	for elapsed < req.MaxTotalTime {
		// Interrupt checking runs while the assistant speaks; every other
		// mode aborts so echo is never captured as an utterance.
		if req.Mode != environ.ModeInterruptCheck && e.speaking.IsSpeaking() {
			e.logger.DebugTag("capture", "assistant speaking, aborting listen")
			return "", nil
		}

		segment, err := e.nextSegment(ctx, chunkDur, req.PhraseTimeout)
		elapsed += chunkDur
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			silence += chunkDur
		} else {
			text, terr := e.stt.Transcribe(ctx, segment.Audio, e.hint)
			text = strings.TrimSpace(text)
			switch {
			case terr != nil || text == "":
				silence += chunkDur
			case e.filter.IsSelfSpeech(text):
				// Echo of our own output counts as silence, not speech.
				silence += chunkDur
			default:
				if aerr := buffer.Append(Fragment{
					Text:    text,
					Offset:  elapsed - chunkDur,
					Segment: segment,
				}); aerr != nil {
					e.logger.ErrorTag("capture", "retain fragment: %v", aerr)
				}
				silence = 0
				humanSpeechDetected = true
				e.logger.DebugTag("capture", "retained fragment %q at %s", text, elapsed-chunkDur)
			}
		}

		if humanSpeechDetected && silenceLimit > 0 && silence >= silenceLimit {
			if last, ok := buffer.Last(); ok && e.openers.Matches(last.Text) && silence < 2*silenceLimit {
				e.logger.DebugTag("capture", "trailing opener %q, extending capture", last.Text)
				silence = 0
				continue
			}
			break
		}
	}

	buffer.Freeze()
	if buffer.Len() == 0 {
		return "", nil
	}

	text := e.assembler.Assemble(ctx, buffer.Segments())
	e.logger.InfoTag("capture", "utterance finalized, %d fragment(s): %q", buffer.Len(), text)
	return text, nil
}

func (e *Engine) nextSegment(ctx context.Context, chunkDur, phraseTimeout time.Duration) (providers.Segment, error) {
	if phraseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, phraseTimeout)
		defer cancel()
	}
	return e.source.Next(ctx, chunkDur)
}
