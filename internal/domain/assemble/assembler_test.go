package assemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-voice-go/internal/contracts/providers"
)

// recordingSTT scripts results per (payload, hint) and records call order.
type recordingSTT struct {
	// combinedFailures makes the first N calls for multi-segment buffers fail.
	results map[string]string
	failAll bool
	calls   []string
}

func (s *recordingSTT) Transcribe(_ context.Context, audio providers.PCM, hint string) (string, error) {
	key := string(audio.Data) + "|" + hint
	s.calls = append(s.calls, key)
	if s.failAll {
		return "", providers.ErrServiceUnavailable
	}
	if text, ok := s.results[key]; ok {
		return text, nil
	}
	return "", providers.ErrNoSpeech
}

func segmentsOf(payloads ...string) []providers.Segment {
	out := make([]providers.Segment, len(payloads))
	for i, p := range payloads {
		out[i] = providers.Segment{Audio: providers.PCM{Data: []byte(p), SampleRate: 16000, Channels: 1}}
	}
	return out
}

func TestAssemble_CombinedFirstHintWins(t *testing.T) {
	stt := &recordingSTT{results: map[string]string{
		"ab|en-US": "what time is it",
	}}
	a := New(Config{STT: stt, DialectHints: []string{"en-US", "en-GB"}})

	text := a.Assemble(context.Background(), segmentsOf("a", "b"))

	assert.Equal(t, "what time is it", text)
	require.Len(t, stt.calls, 1, "first hint succeeded, no further attempts")
}

func TestAssemble_WalksDialectHints(t *testing.T) {
	stt := &recordingSTT{results: map[string]string{
		"ab|en-AU": "fair dinkum",
	}}
	a := New(Config{STT: stt, DialectHints: []string{"en-US", "en-GB", "en-AU"}})

	text := a.Assemble(context.Background(), segmentsOf("a", "b"))

	assert.Equal(t, "fair dinkum", text)
	assert.Equal(t, []string{"ab|en-US", "ab|en-GB", "ab|en-AU"}, stt.calls)
}

func TestAssemble_FallbackStitchesSegments(t *testing.T) {
	// The combined buffer "ab" never transcribes; the individual segments do.
	stt := &recordingSTT{results: map[string]string{
		"a|en-US": "how far is the",
		"b|en-US": "the moon",
	}}
	a := New(Config{STT: stt, DialectHints: []string{"en-US"}, Attempts: 2})

	text := a.Assemble(context.Background(), segmentsOf("a", "b"))

	// The repair table removes the duplicated boundary word.
	assert.Equal(t, "how far is the moon", text)
	// Two combined attempts, then one call per segment.
	assert.Len(t, stt.calls, 4)
}

func TestAssemble_NilOnlyWhenBothStrategiesFail(t *testing.T) {
	stt := &recordingSTT{failAll: true}
	a := New(Config{STT: stt, DialectHints: []string{"en-US", "en-GB"}})

	text := a.Assemble(context.Background(), segmentsOf("a", "b"))

	assert.Empty(t, text)
	// 3 attempts x 2 hints combined, plus 2 per-segment fallback calls.
	assert.Len(t, stt.calls, 8)
}

func TestAssemble_EmptyInput(t *testing.T) {
	a := New(Config{STT: &recordingSTT{}})
	assert.Empty(t, a.Assemble(context.Background(), nil))
}

func TestRepairTable_Apply(t *testing.T) {
	repairs := DefaultRepairTable()

	assert.Equal(t, "what is the answer", repairs.Apply("what  is  the the answer"))
	assert.Equal(t, "the sound", repairs.Apply("the the the sound"))
	assert.Equal(t, "", repairs.Apply("   "))
	assert.Equal(t, "theme theory", repairs.Apply("theme theory"), "substitution is word-bounded")
}
