// Package assemble turns the retained audio of one finalized utterance into
// a single transcript.
package assemble

import (
	"context"
	"strings"

	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/platform/logging"
)

const defaultAttempts = 3

// Assembler submits the whole utterance to the transcription service in one
// request; only when every attempt fails does it fall back to stitching
// per-segment transcripts together.
type Assembler struct {
	stt      providers.Transcriber
	hints    []string
	attempts int
	repairs  RepairTable
	logger   *logging.Logger
}

// Config wires an Assembler.
type Config struct {
	STT providers.Transcriber
	// DialectHints is the ordered set of regional hints tried for the
	// default language; first success wins. Empty means "let the service
	// pick".
	DialectHints []string
	// Attempts caps the combined-audio retries, default 3.
	Attempts int
	Repairs  RepairTable
	Logger   *logging.Logger
}

// New creates an Assembler.
func New(cfg Config) *Assembler {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	hints := cfg.DialectHints
	if len(hints) == 0 {
		hints = []string{""}
	}
	repairs := cfg.Repairs
	if repairs == nil {
		repairs = DefaultRepairTable()
	}
	return &Assembler{
		stt:      cfg.STT,
		hints:    hints,
		attempts: attempts,
		repairs:  repairs,
		logger:   cfg.Logger,
	}
}

// Assemble produces the transcript of the retained segments, in chronological
// order. It never fails: an empty string means both strategies produced zero
// usable text.
func (a *Assembler) Assemble(ctx context.Context, segments []providers.Segment) string {
	if len(segments) == 0 {
		return ""
	}

	if text := a.assembleCombined(ctx, segments); text != "" {
		return text
	}

	a.logger.WarnTag("assemble", "combined transcription failed, falling back to per-segment stitching")
	return a.assemblePerSegment(ctx, segments)
}

// assembleCombined concatenates the raw audio of every segment and submits it
// as one buffer, walking the dialect hints on each attempt.
func (a *Assembler) assembleCombined(ctx context.Context, segments []providers.Segment) string {
	combined := concat(segments)
	if combined.Empty() {
		return ""
	}

	for attempt := 0; attempt < a.attempts; attempt++ {
		for _, hint := range a.hints {
			text, err := a.stt.Transcribe(ctx, combined, hint)
			text = strings.TrimSpace(text)
			if err == nil && text != "" {
				return text
			}
			if ctx.Err() != nil {
				return ""
			}
		}
	}
	return ""
}

// assemblePerSegment transcribes each retained segment on its own and joins
// the non-empty results, then repairs known chunk-boundary artifacts.
func (a *Assembler) assemblePerSegment(ctx context.Context, segments []providers.Segment) string {
	var parts []string
	for _, seg := range segments {
		if seg.Audio.Empty() {
			continue
		}
		text, err := a.stt.Transcribe(ctx, seg.Audio, a.hints[0])
		text = strings.TrimSpace(text)
		if err == nil && text != "" {
			parts = append(parts, text)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return a.repairs.Apply(strings.Join(parts, " "))
}

// concat stitches the segments' raw samples into one buffer. The frame format
// of the first segment wins; the source delivers a uniform format.
func concat(segments []providers.Segment) providers.PCM {
	out := providers.PCM{
		SampleRate: segments[0].Audio.SampleRate,
		Channels:   segments[0].Audio.Channels,
	}
	for _, seg := range segments {
		out.Data = append(out.Data, seg.Audio.Data...)
	}
	return out
}
